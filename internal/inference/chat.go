package inference

import (
	"context"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
)

// Chat sends single messages against an established chat session. The caller
// owns the conversation history; this client mutates nothing.
//
//go:generate moq -fmt=goimports -out zz_generated_chat.go . Chat
type Chat interface {
	SendMessage(ctx context.Context, sessionID, message string) (*api.ChatReply, error)
}

var _ Chat = (*chatClient)(nil)

type chatClient struct {
	*client
}

// NewChat returns a chat client sharing the connection settings of the
// inference config.
func NewChat(cfg Config) Chat {
	return &chatClient{client: &client{cfg: cfg, httpClient: newHTTPClient(cfg.Timeout)}}
}

type chatMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// SendMessage forwards one user message. A 404 from the remote service means
// the session expired or never existed; APIError.IsSessionNotFound
// distinguishes that case from generic failures.
func (c *chatClient) SendMessage(ctx context.Context, sessionID, message string) (*api.ChatReply, error) {
	var out api.ChatReply
	body := chatMessageRequest{SessionID: sessionID, Message: message}
	if err := c.do(ctx, "POST", "/api/v1/chat", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
