// Package metrics provides Prometheus metrics for the matching engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsMatchedTotal tracks per-record outcomes
	RecordsMatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "matching",
			Name:      "records_total",
			Help:      "Total number of crawl records processed by outcome",
		},
		[]string{"outcome"},
	)

	CandidatesGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "banksia",
			Subsystem: "matching",
			Name:      "candidates_per_record",
			Help:      "Number of registry candidates produced per crawl record",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 35, 50},
		},
	)

	// VerificationCallsTotal tracks adjudicator calls by result
	VerificationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "verification",
			Name:      "calls_total",
			Help:      "Total number of LLM verification calls by result",
		},
		[]string{"result"},
	)

	VerificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "banksia",
			Subsystem: "verification",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM verification calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	AdjudicationTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "verification",
			Name:      "estimated_tokens_total",
			Help:      "Estimated adjudication tokens by direction",
		},
		[]string{"direction"},
	)

	// BatchDuration tracks batch processing time
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "banksia",
			Subsystem: "orchestrator",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch processing in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Total number of matching jobs by final status",
		},
		[]string{"status"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "banksia",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of matching jobs currently running",
		},
	)

	EmbeddingCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaMessagesPublished tracks decision events published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banksia",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of Kafka messages published",
		},
		[]string{"topic", "status"},
	)

	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "banksia",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

// RecordOutcome records the terminal outcome of matching one crawl record
func RecordOutcome(outcome string, candidates int) {
	RecordsMatchedTotal.WithLabelValues(outcome).Inc()
	CandidatesGenerated.Observe(float64(candidates))
}

// RecordVerification records one adjudicator call
func RecordVerification(result string, durationSeconds float64) {
	VerificationCallsTotal.WithLabelValues(result).Inc()
	VerificationDuration.Observe(durationSeconds)
}

func RecordTokens(prompt, response int) {
	AdjudicationTokens.WithLabelValues("prompt").Add(float64(prompt))
	AdjudicationTokens.WithLabelValues("response").Add(float64(response))
}

func RecordJob(status string) {
	JobsTotal.WithLabelValues(status).Inc()
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	EmbeddingCacheTotal.WithLabelValues(result).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}
