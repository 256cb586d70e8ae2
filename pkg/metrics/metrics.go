package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Outbound calls to the game API by endpoint and status code
	ClashAPIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clash_api_requests_total",
		Help: "Total number of requests sent to the game API",
	}, []string{"endpoint", "status"})

	ClashAPILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clash_api_request_latency_seconds",
		Help:    "Latency of game API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// Scheduled job executions
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_job_runs_total",
		Help: "Total number of automation job runs by result",
	}, []string{"job", "result"})

	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automation_job_duration_seconds",
		Help:    "Duration of automation jobs",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"job"})

	// Deck usage corrections applied or skipped, by source
	DeckUsageCorrections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deck_usage_corrections_total",
		Help: "Deck usage corrections by kind",
	}, []string{"kind"})

	StrikesAssigned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "automated_strikes_assigned_total",
		Help: "Total number of automated strikes assigned",
	})

	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "Latency of river race outcome predictions",
		Buckets: prometheus.DefBuckets,
	})
)

func Init() {
	prometheus.MustRegister(
		ClashAPIRequests,
		ClashAPILatency,
		JobRuns,
		JobDuration,
		DeckUsageCorrections,
		StrikesAssigned,
		PredictionLatency,
	)
}
