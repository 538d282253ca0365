// Package inference wraps the remote vision-language inference provider with
// thin, stateless request/response clients. Retry policy does not live here;
// the orchestrator owns it.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/pkg/requestid"
)

// Client is the job-facing surface of the inference provider.
//
//go:generate moq -fmt=goimports -out zz_generated_client.go . Client
type Client interface {
	// SubmitJob submits images and property metadata and returns the job id
	// assigned by the remote service.
	SubmitJob(ctx context.Context, form api.AssessmentForm) (*SubmitResponse, error)
	// GetJobStatus returns the current processing state of a job.
	GetJobStatus(ctx context.Context, jobID string) (*StatusResponse, error)
	// GetJobResult fetches the raw report text of a completed job.
	GetJobResult(ctx context.Context, jobID string) (*ResultResponse, error)
}

type SubmitResponse struct {
	JobID string `json:"jobId"`
}

type StatusResponse struct {
	Status api.JobStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

type ResultResponse struct {
	SessionID        string `json:"sessionId"`
	ReportText       string `json:"reportText"`
	ProcessingTimeMs int64  `json:"processingTimeMs,omitempty"`
}

// Config holds the information needed to connect to the inference provider.
type Config struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration
}

var _ Client = (*client)(nil)

type client struct {
	cfg        Config
	httpClient *http.Client
}

// New returns a new inference client from the given config.
func New(cfg Config) Client {
	return &client{
		cfg:        cfg,
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func (c *client) SubmitJob(ctx context.Context, form api.AssessmentForm) (*SubmitResponse, error) {
	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", form, &out); err != nil {
		return nil, err
	}
	if out.JobID == "" {
		return nil, newDecodeError(fmt.Errorf("submit response carries no job id"))
	}
	return &out, nil
}

func (c *client) GetJobStatus(ctx context.Context, jobID string) (*StatusResponse, error) {
	var raw struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	path := fmt.Sprintf("/api/v1/jobs/%s/status", jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	status, ok := api.StringToJobStatus(raw.Status)
	if !ok {
		return nil, newDecodeError(fmt.Errorf("unknown job status %q", raw.Status))
	}
	return &StatusResponse{Status: status, Error: raw.Error}, nil
}

func (c *client) GetJobResult(ctx context.Context, jobID string) (*ResultResponse, error) {
	var out ResultResponse
	path := fmt.Sprintf("/api/v1/jobs/%s/result", jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, newDecodeError(fmt.Errorf("result response carries no session id"))
	}
	return &out, nil
}

// do performs one HTTP exchange and normalizes every failure mode into an
// APIError.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return newDecodeError(fmt.Errorf("encoding request: %w", err))
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return newConnectionError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set("x-request-id", reqID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newConnectionError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return newConnectionError(err)
	}

	if resp.StatusCode/100 != 2 {
		return errorFromResponse(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return newDecodeError(err)
		}
	}
	return nil
}

// errorFromResponse prefers the remote error body when it parses, falling
// back to the HTTP status.
func errorFromResponse(statusCode int, raw []byte) *APIError {
	var remote api.Error
	if err := json.Unmarshal(raw, &remote); err == nil && remote.Message != "" {
		code := remote.Code
		if code == 0 {
			code = statusCode
		}
		apiErr := &APIError{Code: code, Message: remote.Message}
		if remote.Details != nil {
			apiErr.Details = *remote.Details
		}
		return apiErr
	}
	return &APIError{
		Code:    statusCode,
		Message: http.StatusText(statusCode),
	}
}
