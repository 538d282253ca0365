package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "damage_assessment"

	jobsSubmittedTotal = "jobs_submitted_total"
	jobsFinishedTotal  = "jobs_finished_total"
	statusPollsTotal   = "status_polls_total"
	jobDurationSeconds = "job_duration_seconds"
	chatMessagesTotal  = "chat_messages_total"

	outcomeLabel = "outcome"
	resultLabel  = "result"
)

var jobsSubmittedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobsSubmittedTotal,
		Help:      "number of assessment jobs submitted to the inference service",
	},
)

var jobsFinishedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobsFinishedTotal,
		Help:      "number of assessment jobs that reached a terminal state, by outcome",
	},
	[]string{outcomeLabel},
)

var statusPollsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      statusPollsTotal,
		Help:      "number of job status checks issued, by result",
	},
	[]string{resultLabel},
)

var jobDurationSecondsMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      jobDurationSeconds,
		Help:      "wall-clock time from submission to terminal state",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300, 600},
	},
)

var chatMessagesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      chatMessagesTotal,
		Help:      "number of chat messages forwarded to the inference service, by result",
	},
	[]string{resultLabel},
)

func IncreaseJobsSubmitted() {
	jobsSubmittedTotalMetric.Inc()
}

func IncreaseJobsFinished(outcome string) {
	jobsFinishedTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseStatusPolls(result string) {
	statusPollsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func ObserveJobDuration(d time.Duration) {
	jobDurationSecondsMetric.Observe(d.Seconds())
}

func IncreaseChatMessages(result string) {
	chatMessagesTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

// Handler exposes the default registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	prometheus.MustRegister(
		jobsSubmittedTotalMetric,
		jobsFinishedTotalMetric,
		statusPollsTotalMetric,
		jobDurationSecondsMetric,
		chatMessagesTotalMetric,
	)
}
