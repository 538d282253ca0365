package orchestrator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/internal/orchestrator"
)

func TestOrchestrator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "orchestrator suite")
}

// scriptedClient serves canned responses in order, repeating the last one once
// the script is exhausted. All counters are safe for concurrent reads.
type scriptedClient struct {
	mu sync.Mutex

	submitErr error

	statuses   []statusStep
	statusIdx  int
	resultResp *inference.ResultResponse
	resultErr  error

	submitCalls int
	statusCalls int
	resultCalls int
}

type statusStep struct {
	status api.JobStatus
	errMsg string
	err    error
}

func (c *scriptedClient) SubmitJob(_ context.Context, _ api.AssessmentForm) (*inference.SubmitResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitCalls++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return &inference.SubmitResponse{JobID: "job-1"}, nil
}

func (c *scriptedClient) GetJobStatus(_ context.Context, _ string) (*inference.StatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	step := c.statuses[len(c.statuses)-1]
	if c.statusIdx < len(c.statuses) {
		step = c.statuses[c.statusIdx]
		c.statusIdx++
	}
	if step.err != nil {
		return nil, step.err
	}
	return &inference.StatusResponse{Status: step.status, Error: step.errMsg}, nil
}

func (c *scriptedClient) GetJobResult(_ context.Context, _ string) (*inference.ResultResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resultCalls++
	if c.resultErr != nil {
		return nil, c.resultErr
	}
	if c.resultResp != nil {
		return c.resultResp, nil
	}
	return &inference.ResultResponse{SessionID: "session-1", ReportText: "## Executive Summary\nSoot residue found."}, nil
}

func (c *scriptedClient) calls() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCalls, c.statusCalls, c.resultCalls
}

// recorder collects callback invocations for assertions.
type recorder struct {
	mu        sync.Mutex
	updates   []orchestrator.Update
	completed []orchestrator.Result
	failed    []orchestrator.Failure
}

func (r *recorder) callbacks() orchestrator.Callbacks {
	return orchestrator.Callbacks{
		OnUpdate: func(u orchestrator.Update) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, u)
		},
		OnCompleted: func(res orchestrator.Result) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, res)
		},
		OnFailed: func(f orchestrator.Failure) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.failed = append(r.failed, f)
		},
	}
}

func (r *recorder) terminalCounts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed)
}

func (r *recorder) lastFailure() orchestrator.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	Expect(r.failed).ToNot(BeEmpty())
	return r.failed[len(r.failed)-1]
}

func (r *recorder) phases() []api.AssessmentPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	phases := make([]api.AssessmentPhase, 0, len(r.updates))
	for _, u := range r.updates {
		phases = append(phases, u.Phase)
	}
	return phases
}

func testPolicy() orchestrator.Policy {
	return orchestrator.Policy{
		InitialInterval:        2 * time.Millisecond,
		MidInterval:            2 * time.Millisecond,
		LateInterval:           2 * time.Millisecond,
		MidThreshold:           50 * time.Millisecond,
		LateThreshold:          100 * time.Millisecond,
		Deadline:               time.Second,
		MaxConsecutiveFailures: 3,
	}
}

var _ = Describe("orchestrator", func() {
	var (
		rec  *recorder
		form api.AssessmentForm
	)

	BeforeEach(func() {
		rec = &recorder{}
		form = api.AssessmentForm{Images: []string{"ZGF0YQ=="}}
	})

	waitDone := func(o *orchestrator.Orchestrator) {
		Eventually(o.Done(), time.Second).Should(BeClosed())
	}

	Context("happy path", func() {
		It("walks pending and in_progress to a parsed report", func() {
			client := &scriptedClient{statuses: []statusStep{
				{status: api.JobStatusPending},
				{status: api.JobStatusInProgress},
				{status: api.JobStatusCompleted},
			}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseCompleted))
			completed, failed := rec.terminalCounts()
			Expect(completed).To(Equal(1))
			Expect(failed).To(BeZero())
			Expect(rec.completed[0].SessionID).To(Equal("session-1"))
			Expect(rec.completed[0].Report.ExecutiveSummary).To(ContainSubstring("Soot residue"))
			Expect(rec.phases()).To(ContainElements(
				api.PhaseSubmitting, api.PhasePolling, api.PhaseFetchingResult))
		})

		It("refuses a second Start", func() {
			client := &scriptedClient{statuses: []statusStep{{status: api.JobStatusCompleted}}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			Expect(o.Start(context.Background(), form)).To(MatchError(orchestrator.ErrAlreadyStarted))
			waitDone(o)
		})
	})

	Context("submission failures", func() {
		It("fails terminally without retrying", func() {
			client := &scriptedClient{
				submitErr: &inference.APIError{Code: 400, Message: "invalid form"},
				statuses:  []statusStep{{status: api.JobStatusPending}},
			}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseFailed))
			Expect(rec.lastFailure().Reason).To(Equal(orchestrator.FailureSubmission))
			submits, statusChecks, _ := client.calls()
			Expect(submits).To(Equal(1))
			Expect(statusChecks).To(BeZero())
		})
	})

	Context("transient status failures", func() {
		It("tolerates failures below the consecutive threshold", func() {
			boom := &inference.APIError{Code: 503, Message: "unreachable"}
			client := &scriptedClient{statuses: []statusStep{
				{err: boom},
				{err: boom},
				{status: api.JobStatusInProgress},
				{err: boom},
				{err: boom},
				{status: api.JobStatusCompleted},
			}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseCompleted))
			_, failed := rec.terminalCounts()
			Expect(failed).To(BeZero())
		})

		It("fails after the threshold of consecutive errors", func() {
			boom := &inference.APIError{Code: 503, Message: "unreachable"}
			client := &scriptedClient{statuses: []statusStep{
				{err: boom}, {err: boom}, {err: boom},
			}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseFailed))
			Expect(rec.lastFailure().Reason).To(Equal(orchestrator.FailureConnectivity))
			_, statusChecks, _ := client.calls()
			Expect(statusChecks).To(Equal(3))
		})
	})

	Context("remote job failure", func() {
		It("surfaces the remote error message", func() {
			client := &scriptedClient{statuses: []statusStep{
				{status: api.JobStatusPending},
				{status: api.JobStatusFailed, errMsg: "model overloaded"},
			}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			failure := rec.lastFailure()
			Expect(failure.Reason).To(Equal(orchestrator.FailureJob))
			Expect(failure.Message).To(Equal("model overloaded"))
		})
	})

	Context("deadline", func() {
		It("abandons a job that stays pending past the deadline", func() {
			policy := testPolicy()
			policy.Deadline = 20 * time.Millisecond
			client := &scriptedClient{statuses: []statusStep{{status: api.JobStatusPending}}}
			o := orchestrator.New(client, policy, rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseFailed))
			Expect(rec.lastFailure().Reason).To(Equal(orchestrator.FailureDeadline))
		})
	})

	Context("result fetch failure", func() {
		It("fails terminally when the result endpoint errors", func() {
			client := &scriptedClient{
				statuses:  []statusStep{{status: api.JobStatusCompleted}},
				resultErr: &inference.APIError{Code: 500, Message: "storage error"},
			}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			waitDone(o)

			Expect(o.Phase()).To(Equal(api.PhaseFailed))
			Expect(rec.lastFailure().Reason).To(Equal(orchestrator.FailureFetch))
		})
	})

	Context("cancellation", func() {
		It("stops polling and fires no terminal callback", func() {
			client := &scriptedClient{statuses: []statusStep{{status: api.JobStatusPending}}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())

			Eventually(func() int {
				_, statusChecks, _ := client.calls()
				return statusChecks
			}, time.Second).Should(BeNumerically(">=", 2))

			o.Cancel()
			waitDone(o)

			_, frozen, _ := client.calls()
			Consistently(func() int {
				_, statusChecks, _ := client.calls()
				return statusChecks
			}, 30*time.Millisecond).Should(Equal(frozen))

			completed, failed := rec.terminalCounts()
			Expect(completed).To(BeZero())
			Expect(failed).To(BeZero())
		})

		It("is idempotent", func() {
			client := &scriptedClient{statuses: []statusStep{{status: api.JobStatusPending}}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(context.Background(), form)).To(Succeed())
			o.Cancel()
			o.Cancel()
			waitDone(o)
		})

		It("honors context cancellation the same way", func() {
			ctx, cancel := context.WithCancel(context.Background())
			client := &scriptedClient{statuses: []statusStep{{status: api.JobStatusPending}}}
			o := orchestrator.New(client, testPolicy(), rec.callbacks())
			Expect(o.Start(ctx, form)).To(Succeed())
			cancel()
			waitDone(o)

			completed, failed := rec.terminalCounts()
			Expect(completed).To(BeZero())
			Expect(failed).To(BeZero())
		})
	})
})

var _ = Describe("policy", func() {
	It("steps the interval as elapsed time grows", func() {
		p := orchestrator.DefaultPolicy()
		Expect(p.Interval(0)).To(Equal(5 * time.Second))
		Expect(p.Interval(29 * time.Second)).To(Equal(5 * time.Second))
		Expect(p.Interval(30 * time.Second)).To(Equal(10 * time.Second))
		Expect(p.Interval(119 * time.Second)).To(Equal(10 * time.Second))
		Expect(p.Interval(120 * time.Second)).To(Equal(15 * time.Second))
		Expect(p.Interval(10 * time.Minute)).To(Equal(15 * time.Second))
	})
})
