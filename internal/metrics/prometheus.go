package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Total number of user turns by terminal reason",
	}, []string{"reason"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_turn_duration_seconds",
		Help:    "Wall time of a user turn in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	turnRoundTrips = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_turn_round_trips",
		Help:    "Run round-trips needed to finish a turn",
		Buckets: []float64{1, 2, 3, 4, 6, 8},
	})

	runOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_run_outcomes_total",
		Help: "Terminal run statuses observed by the poller",
	}, []string{"status"})

	runAttemptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_run_attempt_failures_total",
		Help: "Transient failures while talking to the run API",
	}, []string{"step"})

	runPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_run_polls_total",
		Help: "Run status fetches",
	})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tool_calls_total",
		Help: "Tool calls executed by function name and result",
	}, []string{"tool", "status"})

	toolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_tool_latency_seconds",
		Help:    "Tool execution latency in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	}, []string{"tool"})

	userMessageRunes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_user_message_runes",
		Help:    "Size of user messages in runes",
		Buckets: prometheus.ExponentialBuckets(8, 2, 10),
	})
)

// RecordTurn records a finished turn.
func RecordTurn(reason string, d time.Duration, roundTrips int) {
	turnsTotal.WithLabelValues(reason).Inc()
	turnDuration.Observe(d.Seconds())
	turnRoundTrips.Observe(float64(roundTrips))
}

// RecordRunStatus records a run leaving the queued/in-progress states.
func RecordRunStatus(status string) {
	runOutcomes.WithLabelValues(status).Inc()
}

// RecordAttemptFailure records a transient run API failure at step.
func RecordAttemptFailure(step string) {
	runAttemptFailures.WithLabelValues(step).Inc()
}

// RecordPoll records one run status fetch.
func RecordPoll() {
	runPolls.Inc()
}

// RecordToolCall records one dispatched tool call.
func RecordToolCall(tool string, isError bool, d time.Duration) {
	status := "success"
	if isError {
		status = "error"
	}
	toolCalls.WithLabelValues(tool, status).Inc()
	toolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordUserMessage records the size of a user message.
func RecordUserMessage(f Features) {
	userMessageRunes.Observe(float64(f.Runes))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
