package orchestrator

import (
	"time"

	"github.com/lthibault/jitterbug/v2"

	"github.com/fdam/assessment-planner/internal/config"
)

// Policy carries the polling constants of one orchestration. The defaults are
// tuned for a backend whose cold start takes two to three minutes: poll
// aggressively while a warm backend would finish, then back off.
type Policy struct {
	// InitialInterval applies while elapsed polling time is under MidThreshold.
	InitialInterval time.Duration
	// MidInterval applies between MidThreshold and LateThreshold.
	MidInterval time.Duration
	// LateInterval applies beyond LateThreshold.
	LateInterval time.Duration

	MidThreshold  time.Duration
	LateThreshold time.Duration

	// Deadline is the absolute ceiling on one job's polling phase, measured
	// from the first scheduled check. It is independent of the failure
	// counter: a backend that answers every poll but never completes is still
	// abandoned.
	Deadline time.Duration

	// MaxConsecutiveFailures is the number of back-to-back transient errors
	// promoted to a fatal failure. Any successful status response resets the
	// count.
	MaxConsecutiveFailures int

	// Jitter, when set, is applied to every computed interval so concurrent
	// orchestrations do not align their polls. Nil disables jitter.
	Jitter jitterbug.Jitter
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval:        5 * time.Second,
		MidInterval:            10 * time.Second,
		LateInterval:           15 * time.Second,
		MidThreshold:           30 * time.Second,
		LateThreshold:          120 * time.Second,
		Deadline:               10 * time.Minute,
		MaxConsecutiveFailures: 3,
		Jitter:                 &jitterbug.Norm{Stdev: 500 * time.Millisecond},
	}
}

// PolicyFromConfig builds a Policy from the environment configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	p := DefaultPolicy()
	p.InitialInterval = cfg.Inference.PollInitialInterval
	p.MidInterval = cfg.Inference.PollMidInterval
	p.LateInterval = cfg.Inference.PollLateInterval
	p.MidThreshold = cfg.Inference.PollMidThreshold
	p.LateThreshold = cfg.Inference.PollLateThreshold
	p.Deadline = cfg.Inference.PollDeadline
	p.MaxConsecutiveFailures = cfg.Inference.PollMaxFailures
	return p
}

// Interval returns the poll interval for the given time elapsed since polling
// started.
func (p Policy) Interval(elapsed time.Duration) time.Duration {
	switch {
	case elapsed < p.MidThreshold:
		return p.InitialInterval
	case elapsed < p.LateThreshold:
		return p.MidInterval
	default:
		return p.LateInterval
	}
}

func (p Policy) jittered(interval time.Duration) time.Duration {
	if p.Jitter == nil {
		return interval
	}
	if d := p.Jitter.Jitter(interval); d > 0 {
		return d
	}
	return interval
}
