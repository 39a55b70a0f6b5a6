package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factlens_checks_total",
			Help: "Total number of credibility checks by outcome",
		},
		[]string{"status"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factlens_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factlens_stage_failures_total",
			Help: "Total pipeline failures by stage",
		},
		[]string{"stage"},
	)

	EvidenceRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factlens_evidence_records",
			Help:    "Number of evidence records retrieved per check",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	VerdictScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factlens_verdict_score",
			Help:    "Truth scores returned by the reasoning service",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		},
	)

	MalformedVerdicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "factlens_malformed_verdicts_total",
			Help: "Total reasoning responses that failed strict JSON parsing",
		},
	)

	FeedbackRatings = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factlens_feedback_rating",
			Help:    "User feedback ratings",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

func Init() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(StageFailures)
	prometheus.MustRegister(EvidenceRecords)
	prometheus.MustRegister(VerdictScore)
	prometheus.MustRegister(MalformedVerdicts)
	prometheus.MustRegister(FeedbackRatings)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
