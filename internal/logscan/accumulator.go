package logscan

import (
	"errors"
	"log/slog"
)

// ErrNoCheckpoints is returned when no validation line was found
var ErrNoCheckpoints = errors.New("no checkpoint accuracy found")

// Accumulator sums accuracy per checkpoint key in first-seen order
type Accumulator struct {
	Order  []string
	Sums   map[string]float64
	Counts map[string]int
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Sums:   make(map[string]float64),
		Counts: make(map[string]int),
	}
}

// Add records one accuracy value for key
func (a *Accumulator) Add(key string, value float64) {
	if _, ok := a.Sums[key]; !ok {
		a.Order = append(a.Order, key)
		a.Sums[key] = value
		a.Counts[key] = 1
		return
	}
	a.Sums[key] += value
	a.Counts[key]++
}

// CheckpointMean is the averaged accuracy of one checkpoint
type CheckpointMean struct {
	Key   string  `json:"key"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// Report is the per-checkpoint summary of a scanned log
type Report struct {
	Means        []CheckpointMean `json:"means"`
	Max          CheckpointMean   `json:"max"`
	Inconsistent []string         `json:"inconsistent,omitempty"` // Keys summed but never counted
}

// Summarize computes the mean accuracy of every checkpoint and the largest mean.
// A key that has a sum but no count is reported as inconsistent and skipped.
func Summarize(acc *Accumulator, logger *slog.Logger) (*Report, error) {
	report := &Report{}
	for _, key := range acc.Order {
		sum, ok := acc.Sums[key]
		if !ok {
			continue
		}
		count, ok := acc.Counts[key]
		if !ok || count == 0 {
			logger.Warn("Checkpoint key missing from counts", "key", key)
			report.Inconsistent = append(report.Inconsistent, key)
			continue
		}
		report.Means = append(report.Means, CheckpointMean{
			Key:   key,
			Sum:   sum,
			Count: count,
			Mean:  sum / float64(count),
		})
	}

	if len(report.Means) == 0 {
		return report, ErrNoCheckpoints
	}

	report.Max = report.Means[0]
	for _, m := range report.Means[1:] {
		if m.Mean > report.Max.Mean {
			report.Max = m
		}
	}
	return report, nil
}
