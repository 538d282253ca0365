// Package orchestrator drives one assessment job from submission to terminal
// resolution: submit, poll the status endpoint on an adaptive schedule, fetch
// the result, parse it. Retry, backoff and timeout policy all live here so
// neither the UI nor the HTTP handlers need to know about them.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/report"
	"github.com/fdam/assessment-planner/pkg/metrics"
)

var ErrAlreadyStarted = errors.New("orchestrator already started")

const (
	msgConnectivity = "Unable to reach the assessment service. Please check your connection and try again."
	msgDeadline     = "The assessment is taking longer than expected. Please try again later."
	msgJobFailed    = "The assessment job failed to process."
)

// FailureReason tags a terminal failure so the UI can message it precisely.
type FailureReason string

const (
	FailureSubmission   FailureReason = "submission_failed"
	FailureJob          FailureReason = "job_failed"
	FailureConnectivity FailureReason = "connectivity"
	FailureDeadline     FailureReason = "deadline_exceeded"
	FailureFetch        FailureReason = "fetch_failed"
)

// Update is one lifecycle transition as exposed to subscribers.
type Update struct {
	Phase api.AssessmentPhase
	// JobStatus is the last known non-terminal status, used for UI hinting
	// (for example "in_progress" during a cold start).
	JobStatus api.JobStatus
	Info      string
}

// Result is the payload of a completed orchestration.
type Result struct {
	Report           api.AssessmentReport
	SessionID        string
	Elapsed          time.Duration
	ProcessingTimeMs int64
}

// Failure is the payload of a failed orchestration.
type Failure struct {
	Reason  FailureReason
	Message string
}

// Callbacks receive lifecycle notifications. Exactly one of OnCompleted or
// OnFailed fires per orchestration, unless the orchestration is canceled
// first, in which case neither does.
type Callbacks struct {
	OnUpdate    func(Update)
	OnCompleted func(Result)
	OnFailed    func(Failure)
}

// Orchestrator owns the submit/poll/resolve lifecycle of a single job. All
// mutable poll state is confined to the run goroutine; the only outside
// influences are Start and Cancel.
type Orchestrator struct {
	client    inference.Client
	policy    Policy
	callbacks Callbacks
	log       *zap.SugaredLogger

	mu       sync.Mutex
	started  bool
	canceled bool
	phase    api.AssessmentPhase

	cancelCh chan struct{}
	doneCh   chan struct{}
}

// New creates an orchestrator in the Idle phase.
func New(client inference.Client, policy Policy, callbacks Callbacks) *Orchestrator {
	return &Orchestrator{
		client:    client,
		policy:    policy,
		callbacks: callbacks,
		log:       zap.S().Named("orchestrator"),
		phase:     api.PhaseIdle,
		cancelCh:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the orchestration for the given form. It returns immediately;
// progress is delivered through the callbacks. Starting twice is an error.
func (o *Orchestrator) Start(ctx context.Context, form api.AssessmentForm) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.started = true
	o.mu.Unlock()

	go o.run(ctx, form)
	return nil
}

// Cancel stops the orchestration cooperatively: no further status checks are
// issued and no terminal callback fires after Cancel returns. Canceling a
// finished or never-started orchestrator is a no-op.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.canceled {
		return
	}
	o.canceled = true
	close(o.cancelCh)
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() api.AssessmentPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Done is closed when the run loop has exited, whatever the reason.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.doneCh
}

func (o *Orchestrator) run(ctx context.Context, form api.AssessmentForm) {
	defer close(o.doneCh)

	if !o.transition(api.PhaseSubmitting, "", "submitting assessment job") {
		return
	}

	submitted, err := o.client.SubmitJob(ctx, form)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// A failed submission indicates a request-level problem, not
		// transient infra flakiness. No retry.
		o.log.Warnw("job submission failed", "error", err)
		o.fail(Failure{Reason: FailureSubmission, Message: err.Error()})
		return
	}
	metrics.IncreaseJobsSubmitted()
	o.log.Infow("job submitted", "job_id", submitted.JobID)

	pollStart := time.Now()
	if !o.transition(api.PhasePolling, api.JobStatusPending, "job accepted") {
		return
	}

	jobID := submitted.JobID
	consecutiveFailures := 0

	for {
		if !o.sleep(ctx, o.policy.jittered(o.policy.Interval(time.Since(pollStart)))) {
			return
		}

		// The deadline is a hard ceiling checked at the top of each scheduled
		// attempt, never a second timer racing the poll.
		if time.Since(pollStart) > o.policy.Deadline {
			o.log.Warnw("poll deadline exceeded", "job_id", jobID, "elapsed", time.Since(pollStart))
			o.fail(Failure{Reason: FailureDeadline, Message: msgDeadline})
			return
		}

		status, err := o.client.GetJobStatus(ctx, jobID)
		if o.isCanceled() || ctx.Err() != nil {
			return
		}
		if err != nil {
			metrics.IncreaseStatusPolls("error")
			consecutiveFailures++
			o.log.Warnw("status check failed", "job_id", jobID, "consecutive_failures", consecutiveFailures, "error", err)
			if consecutiveFailures >= o.policy.MaxConsecutiveFailures {
				o.fail(Failure{Reason: FailureConnectivity, Message: msgConnectivity})
				return
			}
			continue
		}
		metrics.IncreaseStatusPolls("ok")
		// Only consecutive transient failures count toward the abort
		// threshold; a single good response isolates earlier blips.
		consecutiveFailures = 0

		switch status.Status {
		case api.JobStatusPending, api.JobStatusInProgress:
			if !o.transition(api.PhasePolling, status.Status, "") {
				return
			}
		case api.JobStatusFailed:
			message := status.Error
			if message == "" {
				message = msgJobFailed
			}
			o.fail(Failure{Reason: FailureJob, Message: message})
			return
		case api.JobStatusCompleted:
			o.resolve(ctx, jobID, pollStart)
			return
		}
	}
}

// resolve fetches the raw result of a completed job and parses it.
func (o *Orchestrator) resolve(ctx context.Context, jobID string, pollStart time.Time) {
	if !o.transition(api.PhaseFetchingResult, api.JobStatusCompleted, "fetching assessment result") {
		return
	}

	result, err := o.client.GetJobResult(ctx, jobID)
	if o.isCanceled() || ctx.Err() != nil {
		return
	}
	if err != nil {
		o.log.Warnw("result fetch failed", "job_id", jobID, "error", err)
		o.fail(Failure{Reason: FailureFetch, Message: err.Error()})
		return
	}

	elapsed := time.Since(pollStart)
	o.complete(Result{
		Report:           report.Parse(result.ReportText),
		SessionID:        result.SessionID,
		Elapsed:          elapsed,
		ProcessingTimeMs: result.ProcessingTimeMs,
	})
}

// transition moves to a non-terminal phase and notifies the subscriber.
// Returns false when the orchestration was canceled meanwhile.
func (o *Orchestrator) transition(phase api.AssessmentPhase, status api.JobStatus, info string) bool {
	o.mu.Lock()
	if o.canceled {
		o.mu.Unlock()
		return false
	}
	o.phase = phase
	cb := o.callbacks.OnUpdate
	o.mu.Unlock()

	if cb != nil {
		cb(Update{Phase: phase, JobStatus: status, Info: info})
	}
	return true
}

func (o *Orchestrator) complete(result Result) {
	o.mu.Lock()
	if o.canceled {
		o.mu.Unlock()
		return
	}
	o.phase = api.PhaseCompleted
	cb := o.callbacks.OnCompleted
	o.mu.Unlock()

	metrics.IncreaseJobsFinished("completed")
	metrics.ObserveJobDuration(result.Elapsed)
	o.log.Infow("job completed", "elapsed", result.Elapsed)
	if cb != nil {
		cb(result)
	}
}

func (o *Orchestrator) fail(failure Failure) {
	o.mu.Lock()
	if o.canceled {
		o.mu.Unlock()
		return
	}
	o.phase = api.PhaseFailed
	cb := o.callbacks.OnFailed
	o.mu.Unlock()

	metrics.IncreaseJobsFinished(string(failure.Reason))
	if cb != nil {
		cb(failure)
	}
}

// sleep waits for the given interval, returning false when the orchestration
// is canceled or the context ends before the timer fires. No callback fires in
// either case; cancellation by the consumer must never call back into
// disposed state.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !o.isCanceled()
	case <-o.cancelCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) isCanceled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canceled
}
