package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/events"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/store"
	"github.com/fdam/assessment-planner/internal/store/model"
	"github.com/fdam/assessment-planner/pkg/metrics"
)

const (
	chatRoleUser      = "user"
	chatRoleAssistant = "assistant"
)

// ChatService forwards follow-up questions against a completed assessment's
// chat session and keeps the transcript. Conversation history lives here, not
// in the remote service.
type ChatService struct {
	store       store.Store
	chat        inference.Chat
	assessments *AssessmentService
	producer    *events.EventProducer
	log         *zap.SugaredLogger
}

func NewChatService(s store.Store, chat inference.Chat, assessments *AssessmentService, producer *events.EventProducer) *ChatService {
	return &ChatService{
		store:       s,
		chat:        chat,
		assessments: assessments,
		producer:    producer,
		log:         zap.S().Named("chat_service"),
	}
}

// SendMessage forwards one user message against the assessment's session and
// appends both sides of the exchange to the transcript.
func (cs *ChatService) SendMessage(ctx context.Context, assessmentID uuid.UUID, message string) (*api.ChatReply, error) {
	view, err := cs.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if view.Phase != api.PhaseCompleted || view.SessionId == "" {
		return nil, NewErrAssessmentNotCompleted(assessmentID, string(view.Phase))
	}

	reply, err := cs.chat.SendMessage(ctx, view.SessionId, message)
	if err != nil {
		metrics.IncreaseChatMessages("error")
		var apiErr *inference.APIError
		if errors.As(err, &apiErr) {
			if apiErr.IsSessionNotFound() {
				return nil, NewErrChatSessionExpired(assessmentID)
			}
			if apiErr.Retryable() {
				return nil, NewErrChatUnavailable(apiErr.Message)
			}
		}
		return nil, fmt.Errorf("failed to send chat message: %w", err)
	}
	metrics.IncreaseChatMessages("ok")

	cs.persistExchange(ctx, assessmentID, message, reply.Response)
	cs.emitChat(assessmentID, view.SessionId, chatRoleUser)

	return reply, nil
}

// persistExchange stores both sides of the exchange in one transaction so the
// transcript never ends up with an answer missing its question. The write is
// best-effort: a storage failure does not fail the exchange the user already
// paid for.
func (cs *ChatService) persistExchange(ctx context.Context, assessmentID uuid.UUID, question, answer string) {
	txCtx, err := cs.store.NewTransactionContext(ctx)
	if err != nil {
		cs.log.Warnw("failed to open chat transaction", "assessment_id", assessmentID, "error", err)
		return
	}
	if err := cs.appendTranscript(txCtx, assessmentID, chatRoleUser, question); err != nil {
		_, _ = store.Rollback(txCtx)
		return
	}
	if err := cs.appendTranscript(txCtx, assessmentID, chatRoleAssistant, answer); err != nil {
		_, _ = store.Rollback(txCtx)
		return
	}
	if _, err := store.Commit(txCtx); err != nil {
		cs.log.Warnw("failed to commit chat transcript", "assessment_id", assessmentID, "error", err)
	}
}

// GetTranscript returns the stored conversation in chronological order.
func (cs *ChatService) GetTranscript(ctx context.Context, assessmentID uuid.UUID) ([]api.ChatMessage, error) {
	if _, err := cs.assessments.GetAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}

	stored, err := cs.store.Chat().List(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	out := make([]api.ChatMessage, 0, len(stored))
	for _, m := range stored {
		out = append(out, api.ChatMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func (cs *ChatService) appendTranscript(ctx context.Context, assessmentID uuid.UUID, role, content string) error {
	_, err := cs.store.Chat().Append(ctx, model.ChatMessage{
		AssessmentID: assessmentID,
		Role:         role,
		Content:      content,
	})
	if err != nil {
		cs.log.Warnw("failed to append chat message", "assessment_id", assessmentID, "role", role, "error", err)
	}
	return err
}

func (cs *ChatService) emitChat(assessmentID uuid.UUID, sessionID, role string) {
	if cs.producer == nil {
		return
	}
	body, err := json.Marshal(events.ChatEvent{
		AssessmentID: assessmentID.String(),
		SessionID:    sessionID,
		Role:         role,
	})
	if err != nil {
		return
	}
	if err := cs.producer.Write(context.TODO(), events.ChatMessageKind, bytes.NewReader(body)); err != nil {
		cs.log.Warnw("failed to emit chat event", "assessment_id", assessmentID, "error", err)
	}
}
