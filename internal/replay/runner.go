package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/lamim/trainkit/internal/tracker"
	"github.com/lamim/trainkit/pkg/models"
)

// Result summarizes a replay
type Result struct {
	Epochs    int
	Evaluated int
	Best      models.BestRecord
	Summary   string
	Duration  time.Duration
}

// HistorySink receives one entry per evaluated epoch
type HistorySink interface {
	WriteEntry(entry models.EvaluationEntry) error
}

// Runner drives recorded epochs through an EvalCallback
type Runner struct {
	tracker      *tracker.Tracker
	sinks        []HistorySink
	logger       *slog.Logger
	showProgress bool
}

// NewRunner creates a runner that reports every evaluation to sinks
func NewRunner(t *tracker.Tracker, logger *slog.Logger, showProgress bool, sinks ...HistorySink) *Runner {
	return &Runner{
		tracker:      t,
		sinks:        sinks,
		logger:       logger,
		showProgress: showProgress,
	}
}

// Run replays records in order and finalizes the tracker
func (r *Runner) Run(ctx context.Context, records []Record) (*Result, error) {
	start := time.Now()

	var current Record
	eval := func(ctx context.Context, _ map[string]any) (float64, error) {
		return current.Metric, nil
	}
	cb := tracker.NewEvalCallback(r.tracker, eval, nil, r.logger)

	var bar *progressbar.ProgressBar
	if r.showProgress {
		bar = progressbar.Default(int64(len(records)), "Replaying")
	} else {
		bar = progressbar.DefaultSilent(int64(len(records)), "Replaying")
	}

	result := &Result{Epochs: len(records)}
	for _, rec := range records {
		current = rec

		evaluated, err := cb.EpochEnd(ctx, rec.Epoch, rec)
		if err != nil {
			return nil, fmt.Errorf("replay stopped at epoch %d: %w", rec.Epoch, err)
		}
		if evaluated {
			result.Evaluated++
			if err := r.recordHistory(rec); err != nil {
				return nil, err
			}
		}

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	result.Summary = cb.End()
	result.Best = r.tracker.Best()
	result.Duration = time.Since(start)

	r.logger.Info("Replay complete",
		"epochs", result.Epochs,
		"evaluated", result.Evaluated,
		"duration", result.Duration)

	return result, nil
}

func (r *Runner) recordHistory(rec Record) error {
	if len(r.sinks) == 0 {
		return nil
	}

	best := r.tracker.Best()
	entry := models.EvaluationEntry{
		Epoch:     rec.Epoch,
		Metric:    rec.Metric,
		Improved:  best.Epoch == rec.Epoch,
		BestValue: best.Value,
		BestEpoch: best.Epoch,
		Timestamp: time.Now(),
	}
	for _, sink := range r.sinks {
		if err := sink.WriteEntry(entry); err != nil {
			return fmt.Errorf("failed to record epoch %d: %w", rec.Epoch, err)
		}
	}
	return nil
}
