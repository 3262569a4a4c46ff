package models

import (
	"math"
	"time"
)

// EvaluationPoint is the result of one validation pass
type EvaluationPoint struct {
	Epoch  int     `json:"epoch"`  // Epoch the evaluation ran at (non-negative, increasing)
	Metric float64 `json:"metric"` // Higher is better
	State  any     `json:"-"`      // Trainable state handle (*Snapshot or StateProvider)
}

// BestRecord is the running best result held by a tracker
type BestRecord struct {
	Value float64 `json:"value"`
	Epoch int     `json:"epoch"`
	Path  string  `json:"path"`  // Where the best artifact lives
	Found bool    `json:"found"` // False until the first evaluation point is observed
}

// NewBestRecord returns a record whose value is below any valid metric
func NewBestRecord(path string) BestRecord {
	return BestRecord{
		Value: math.Inf(-1),
		Path:  path,
	}
}

// Parameter describes a trainable parameter by name and shape
type Parameter struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
}

// ParamGroup is a set of parameters sharing one weight decay value
type ParamGroup struct {
	Params      []Parameter `json:"params"`
	WeightDecay float64     `json:"weight_decay"`
}

// EvaluationEntry is one line of the evaluation history written during a run
type EvaluationEntry struct {
	Epoch     int       `json:"epoch"`
	Metric    float64   `json:"metric"`
	Improved  bool      `json:"improved"`
	BestValue float64   `json:"best_value"`
	BestEpoch int       `json:"best_epoch"`
	Timestamp time.Time `json:"timestamp"`
}
