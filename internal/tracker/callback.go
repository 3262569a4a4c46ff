package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/trainkit/internal/metrics"
	"github.com/lamim/trainkit/pkg/models"
)

// EvalFunc runs a validation pass and returns one scalar metric
type EvalFunc func(ctx context.Context, params map[string]any) (float64, error)

// EvalCallback runs the evaluation function at the end of qualifying epochs
// and feeds the result to a Tracker
type EvalCallback struct {
	tracker *Tracker
	eval    EvalFunc
	params  map[string]any
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewEvalCallback wires an evaluation function to a tracker
func NewEvalCallback(t *Tracker, eval EvalFunc, params map[string]any, logger *slog.Logger) *EvalCallback {
	return &EvalCallback{
		tracker: t,
		eval:    eval,
		params:  params,
		logger:  logger,
		metrics: t.metrics,
		now:     time.Now,
	}
}

// EpochEnd evaluates state when epoch is on the stride. It reports whether
// an evaluation ran.
func (c *EvalCallback) EpochEnd(ctx context.Context, epoch int, state any) (bool, error) {
	if !c.tracker.ShouldEvaluate(epoch) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	start := c.now()
	res, err := c.eval(ctx, c.params)
	cost := c.now().Sub(start)
	if err != nil {
		return false, fmt.Errorf("evaluation at epoch %d failed: %w", epoch, err)
	}
	c.metrics.RecordEvaluationDuration(c.tracker.MetricName(), cost)

	c.logger.Info("Epoch evaluated",
		"epoch", epoch,
		c.tracker.MetricName(), res,
		"eval_cost", fmt.Sprintf("%.2f", cost.Seconds()))

	if err := c.tracker.Observe(models.EvaluationPoint{Epoch: epoch, Metric: res, State: state}); err != nil {
		return true, err
	}
	return true, nil
}

// End reports the best result at the end of training
func (c *EvalCallback) End() string {
	return c.tracker.Finalize()
}
