package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluation metrics
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainkit_evaluations_total",
			Help: "Total number of evaluation points observed",
		},
		[]string{"metric", "improved"}, // improved: "true"/"false"
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trainkit_evaluation_duration_seconds",
			Help:    "Time spent in the evaluation function",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~160s
		},
		[]string{"metric"},
	)

	bestMetricValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trainkit_best_metric_value",
			Help: "Best metric value observed so far",
		},
		[]string{"metric"},
	)

	bestMetricEpoch = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trainkit_best_metric_epoch",
			Help: "Epoch at which the best metric value was observed",
		},
		[]string{"metric"},
	)

	// Checkpoint metrics
	checkpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainkit_checkpoint_writes_total",
			Help: "Best checkpoint writes by status",
		},
		[]string{"status"}, // "success"/"error"
	)

	checkpointRemoveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainkit_checkpoint_remove_failures_total",
			Help: "Failed removals of a previous best checkpoint",
		},
	)
)

// Collector provides convenience methods for recording metrics
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// RecordEvaluation counts one observed evaluation point
func (c *Collector) RecordEvaluation(metric string, improved bool) {
	evaluationsTotal.WithLabelValues(metric, fmt.Sprintf("%t", improved)).Inc()
}

// RecordEvaluationDuration records how long the evaluation function took
func (c *Collector) RecordEvaluationDuration(metric string, duration time.Duration) {
	evaluationDuration.WithLabelValues(metric).Observe(duration.Seconds())
}

// SetBest publishes the current best value and epoch
func (c *Collector) SetBest(metric string, value float64, epoch int) {
	bestMetricValue.WithLabelValues(metric).Set(value)
	bestMetricEpoch.WithLabelValues(metric).Set(float64(epoch))
}

// RecordCheckpointWrite counts a best checkpoint write
func (c *Collector) RecordCheckpointWrite(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	checkpointWrites.WithLabelValues(status).Inc()
}

// RecordRemoveFailure counts a failed removal of the previous best checkpoint
func (c *Collector) RecordRemoveFailure() {
	checkpointRemoveFailures.Inc()
}

// WriteTextfile dumps the default registry in the node exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	c.logger.Info("Metrics written", "path", path)
	return nil
}
