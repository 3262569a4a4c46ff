// Package tracker keeps the best evaluation result of a training run and the
// checkpoint that goes with it.
package tracker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lamim/trainkit/internal/checkpoint"
	"github.com/lamim/trainkit/internal/config"
	"github.com/lamim/trainkit/internal/metrics"
	"github.com/lamim/trainkit/pkg/models"
)

// Serializer persists the state of an evaluation point to path
type Serializer interface {
	Save(path string, point models.EvaluationPoint) error
}

// Tracker decides once per evaluation whether a result is the best so far.
// It is not safe for concurrent use.
type Tracker struct {
	interval   int
	startEpoch int
	saveBest   bool
	metricName string

	best       models.BestRecord
	serializer Serializer
	remove     func(path string) error
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// New creates a tracker and makes sure the checkpoint directory exists
func New(cfg config.TrackerConfig, serializer Serializer, logger *slog.Logger, collector *metrics.Collector) (*Tracker, error) {
	if cfg.Interval < 1 {
		return nil, &ConfigurationError{Field: "interval", Reason: fmt.Sprintf("should be >= 1 (got %d)", cfg.Interval)}
	}
	if cfg.EvalStartEpoch < 0 {
		return nil, &ConfigurationError{Field: "eval_start_epoch", Reason: fmt.Sprintf("should be >= 0 (got %d)", cfg.EvalStartEpoch)}
	}
	if cfg.SaveBestCkpt && serializer == nil {
		return nil, &ConfigurationError{Field: "save_best_ckpt", Reason: "requires a serializer"}
	}

	dir := cfg.CkptDirectory
	if dir == "" {
		dir = "."
	}
	name := cfg.BestCkptName
	if name == "" {
		name = config.DefaultBestCkptName
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	if collector == nil {
		collector = metrics.NewCollector(logger)
	}

	metricName := cfg.MetricsName
	if metricName == "" {
		metricName = config.DefaultMetricsName
	}

	return &Tracker{
		interval:   cfg.Interval,
		startEpoch: cfg.EvalStartEpoch,
		saveBest:   cfg.SaveBestCkpt,
		metricName: metricName,
		best:       models.NewBestRecord(filepath.Join(dir, name)),
		serializer: serializer,
		remove:     checkpoint.RemoveFile,
		logger:     logger,
		metrics:    collector,
	}, nil
}

// ShouldEvaluate reports whether epoch falls on the evaluation stride
func (t *Tracker) ShouldEvaluate(epoch int) bool {
	return epoch >= t.startEpoch && (epoch-t.startEpoch)%t.interval == 0
}

// Observe records an evaluation point. A metric equal to the current best
// counts as an improvement, so ties move the best epoch forward and re-save.
// Only serialization errors are returned; a failed removal of the previous
// artifact is logged and the write still happens.
func (t *Tracker) Observe(point models.EvaluationPoint) error {
	improved := point.Metric >= t.best.Value
	t.metrics.RecordEvaluation(t.metricName, improved)
	if !improved {
		t.logger.Debug("No improvement",
			"epoch", point.Epoch,
			t.metricName, point.Metric,
			"best", t.best.Value,
			"best_epoch", t.best.Epoch)
		return nil
	}

	t.best.Value = point.Metric
	t.best.Epoch = point.Epoch
	t.best.Found = true
	t.metrics.SetBest(t.metricName, point.Metric, point.Epoch)
	t.logger.Info("Updated best result", "epoch", point.Epoch, t.metricName, point.Metric)

	if !t.saveBest {
		return nil
	}

	if checkpoint.Exists(t.best.Path) {
		if err := t.remove(t.best.Path); err != nil {
			t.metrics.RecordRemoveFailure()
			t.logger.Warn("Failed to remove the older checkpoint file", "path", t.best.Path, "error", err)
		}
	}

	if err := t.serializer.Save(t.best.Path, point); err != nil {
		t.metrics.RecordCheckpointWrite(false)
		return fmt.Errorf("failed to save best checkpoint at epoch %d: %w", point.Epoch, err)
	}
	t.metrics.RecordCheckpointWrite(true)
	t.logger.Info("Updated best checkpoint", "path", t.best.Path)

	return nil
}

// Finalize reports the best result; it does not change any state
func (t *Tracker) Finalize() string {
	summary := fmt.Sprintf("End training, the best %[1]s is: %[2]v, the best %[1]s epoch is %[3]d",
		t.metricName, t.best.Value, t.best.Epoch)
	if !t.best.Found {
		summary = fmt.Sprintf("End training, no %s was evaluated", t.metricName)
	}
	t.logger.Info(summary)
	return summary
}

// Best returns a copy of the current best record
func (t *Tracker) Best() models.BestRecord {
	return t.best
}

// Path returns where the best checkpoint is written
func (t *Tracker) Path() string {
	return t.best.Path
}

// MetricName returns the name used when reporting the metric
func (t *Tracker) MetricName() string {
	return t.metricName
}
