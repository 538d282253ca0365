package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/events"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/orchestrator"
	"github.com/fdam/assessment-planner/internal/service/mappers"
	"github.com/fdam/assessment-planner/internal/store"
	"github.com/fdam/assessment-planner/internal/store/model"
)

const persistTimeout = 10 * time.Second

// runningAssessment pairs an in-flight orchestration with the view served to
// clients while the database only holds the last persisted phase.
type runningAssessment struct {
	orch *orchestrator.Orchestrator

	mu   sync.Mutex
	view api.Assessment
}

func (r *runningAssessment) snapshot() api.Assessment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// AssessmentService owns the set of in-flight orchestrations and the stored
// assessment records. One orchestrator runs per submitted assessment; its
// lifecycle callbacks update the in-memory view first and the store second.
type AssessmentService struct {
	store    store.Store
	client   inference.Client
	policy   orchestrator.Policy
	producer *events.EventProducer
	log      *zap.SugaredLogger

	mu      sync.RWMutex
	running map[uuid.UUID]*runningAssessment
}

func NewAssessmentService(s store.Store, client inference.Client, policy orchestrator.Policy, producer *events.EventProducer) *AssessmentService {
	return &AssessmentService{
		store:    s,
		client:   client,
		policy:   policy,
		producer: producer,
		log:      zap.S().Named("assessment_service"),
		running:  make(map[uuid.UUID]*runningAssessment),
	}
}

// CreateAssessment persists a new record and launches its orchestration. The
// returned view reflects the submitting phase; progress is observed through
// GetAssessment.
func (as *AssessmentService) CreateAssessment(ctx context.Context, form api.AssessmentForm) (*api.Assessment, error) {
	m := mappers.AssessmentCreateForm{Form: form}.ToModel()

	created, err := as.store.Assessment().Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	ra := &runningAssessment{view: mappers.AssessmentToApi(*created)}
	ra.orch = orchestrator.New(as.client, as.policy, as.callbacksFor(created.ID, ra))

	as.mu.Lock()
	as.running[created.ID] = ra
	as.mu.Unlock()

	// The orchestration outlives the submitting request.
	if err := ra.orch.Start(context.Background(), form); err != nil {
		as.mu.Lock()
		delete(as.running, created.ID)
		as.mu.Unlock()
		return nil, err
	}

	as.log.Infow("assessment created", "assessment_id", created.ID, "image_count", len(form.Images))
	view := ra.snapshot()
	return &view, nil
}

func (as *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*api.Assessment, error) {
	as.mu.RLock()
	ra, ok := as.running[id]
	as.mu.RUnlock()
	if ok {
		view := ra.snapshot()
		return &view, nil
	}

	m, err := as.store.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAssessmentNotFound(id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	view := mappers.AssessmentToApi(*m)
	return &view, nil
}

func (as *AssessmentService) ListAssessments(ctx context.Context, filter *store.AssessmentQueryFilter) ([]api.Assessment, error) {
	stored, err := as.store.Assessment().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	out := mappers.AssessmentListToApi(stored)

	// In-flight orchestrations are ahead of their stored rows.
	as.mu.RLock()
	defer as.mu.RUnlock()
	for i := range out {
		if ra, ok := as.running[out[i].Id]; ok {
			out[i] = ra.snapshot()
		}
	}
	return out, nil
}

// GetReport returns the parsed report of a completed assessment.
func (as *AssessmentService) GetReport(ctx context.Context, id uuid.UUID) (*api.AssessmentReport, error) {
	view, err := as.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.Phase != api.PhaseCompleted || view.Report == nil {
		return nil, NewErrAssessmentNotCompleted(id, string(view.Phase))
	}
	return view.Report, nil
}

// CancelAssessment cancels a running orchestration and records the
// cancellation. Canceling an already finished assessment is a no-op.
func (as *AssessmentService) CancelAssessment(ctx context.Context, id uuid.UUID) error {
	as.mu.Lock()
	ra, ok := as.running[id]
	if ok {
		delete(as.running, id)
	}
	as.mu.Unlock()

	if !ok {
		if _, err := as.store.Assessment().Get(ctx, id); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrAssessmentNotFound(id)
			}
			return fmt.Errorf("failed to cancel assessment: %w", err)
		}
		return nil
	}

	ra.orch.Cancel()

	msg := "canceled by user"
	if err := as.store.Assessment().UpdatePhase(ctx, id, string(api.PhaseFailed), &msg); err != nil {
		return fmt.Errorf("failed to record cancellation: %w", err)
	}

	as.log.Infow("assessment canceled", "assessment_id", id)
	as.emitLifecycle(id, string(api.PhaseFailed), "", &msg)
	return nil
}

// DeleteAssessment cancels any running orchestration and removes the record
// with its chat transcript.
func (as *AssessmentService) DeleteAssessment(ctx context.Context, id uuid.UUID) error {
	as.mu.Lock()
	ra, ok := as.running[id]
	if ok {
		delete(as.running, id)
	}
	as.mu.Unlock()

	if ok {
		ra.orch.Cancel()
	}

	if err := as.store.Assessment().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	return nil
}

func (as *AssessmentService) callbacksFor(id uuid.UUID, ra *runningAssessment) orchestrator.Callbacks {
	return orchestrator.Callbacks{
		OnUpdate: func(u orchestrator.Update) {
			// A canceled assessment left the registry already; its last
			// in-flight update must not overwrite the recorded cancellation.
			as.mu.RLock()
			_, active := as.running[id]
			as.mu.RUnlock()
			if !active {
				return
			}

			ra.mu.Lock()
			ra.view.Phase = u.Phase
			ra.view.JobStatus = u.JobStatus
			ra.view.StatusInfo = u.Info
			ra.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := as.store.Assessment().UpdatePhase(ctx, id, string(u.Phase), nil); err != nil {
				as.log.Warnw("failed to persist phase", "assessment_id", id, "phase", u.Phase, "error", err)
			}
			as.emitLifecycle(id, string(u.Phase), string(u.JobStatus), nil)
		},
		OnCompleted: func(res orchestrator.Result) {
			ra.mu.Lock()
			ra.view.Phase = api.PhaseCompleted
			ra.view.JobStatus = api.JobStatusCompleted
			ra.view.SessionId = res.SessionID
			report := res.Report
			ra.view.Report = &report
			ra.view.ProcessingTimeMs = res.ProcessingTimeMs
			ra.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if _, err := as.store.Assessment().Update(ctx, model.Assessment{
				ID:               id,
				Phase:            string(api.PhaseCompleted),
				SessionID:        res.SessionID,
				Report:           model.MakeJSONField(res.Report),
				ProcessingTimeMs: res.ProcessingTimeMs,
			}); err != nil {
				as.log.Errorw("failed to persist completed assessment", "assessment_id", id, "error", err)
			}

			as.mu.Lock()
			delete(as.running, id)
			as.mu.Unlock()

			as.log.Infow("assessment completed", "assessment_id", id, "elapsed", res.Elapsed)
			as.emitLifecycle(id, string(api.PhaseCompleted), string(api.JobStatusCompleted), nil)
		},
		OnFailed: func(f orchestrator.Failure) {
			ra.mu.Lock()
			ra.view.Phase = api.PhaseFailed
			ra.view.Error = f.Message
			ra.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			msg := f.Message
			if err := as.store.Assessment().UpdatePhase(ctx, id, string(api.PhaseFailed), &msg); err != nil {
				as.log.Errorw("failed to persist failed assessment", "assessment_id", id, "error", err)
			}

			as.mu.Lock()
			delete(as.running, id)
			as.mu.Unlock()

			as.log.Warnw("assessment failed", "assessment_id", id, "reason", f.Reason, "message", f.Message)
			as.emitLifecycle(id, string(api.PhaseFailed), "", &msg)
		},
	}
}

func (as *AssessmentService) emitLifecycle(id uuid.UUID, phase, jobStatus string, errMsg *string) {
	if as.producer == nil {
		return
	}
	body, err := json.Marshal(events.AssessmentEvent{
		AssessmentID: id.String(),
		Phase:        phase,
		JobStatus:    jobStatus,
		Error:        errMsg,
	})
	if err != nil {
		return
	}
	if err := as.producer.Write(context.TODO(), events.AssessmentMessageKind, bytes.NewReader(body)); err != nil {
		as.log.Warnw("failed to emit lifecycle event", "assessment_id", id, "error", err)
	}
}
