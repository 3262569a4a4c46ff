// Package loss implements the classification losses used for training
package loss

import (
	"fmt"
	"math"

	"github.com/lamim/trainkit/internal/config"
)

// LabelSmoothingCrossEntropy is softmax cross entropy against smoothed one-hot
// targets: the true class gets 1-smooth and every other class smooth/(C-1)
type LabelSmoothingCrossEntropy struct {
	SmoothFactor float64
	NumClasses   int
	onValue      float64
	offValue     float64
}

// NewLabelSmoothingCrossEntropy creates the loss for numClasses classes
func NewLabelSmoothingCrossEntropy(smoothFactor float64, numClasses int) (*LabelSmoothingCrossEntropy, error) {
	if numClasses < 2 {
		return nil, fmt.Errorf("label smoothing needs at least 2 classes (got %d)", numClasses)
	}
	if smoothFactor < 0 || smoothFactor >= 1 {
		return nil, fmt.Errorf("smooth factor must be in [0, 1) (got %g)", smoothFactor)
	}
	return &LabelSmoothingCrossEntropy{
		SmoothFactor: smoothFactor,
		NumClasses:   numClasses,
		onValue:      1.0 - smoothFactor,
		offValue:     smoothFactor / float64(numClasses-1),
	}, nil
}

// FromConfig creates the loss described by the [loss] config section
func FromConfig(cfg config.LossConfig) (*LabelSmoothingCrossEntropy, error) {
	return NewLabelSmoothingCrossEntropy(cfg.SmoothFactor, cfg.NumClasses)
}

// OneHot returns the smoothed target distribution for label
func (l *LabelSmoothingCrossEntropy) OneHot(label int) ([]float64, error) {
	if label < 0 || label >= l.NumClasses {
		return nil, fmt.Errorf("label %d out of range [0, %d)", label, l.NumClasses)
	}
	target := make([]float64, l.NumClasses)
	for j := range target {
		target[j] = l.offValue
	}
	target[label] = l.onValue
	return target, nil
}

// Forward returns the batch mean loss for logits of shape [batch][classes]
func (l *LabelSmoothingCrossEntropy) Forward(logits [][]float64, labels []int) (float64, error) {
	if len(logits) == 0 {
		return 0, fmt.Errorf("empty batch")
	}
	if len(logits) != len(labels) {
		return 0, fmt.Errorf("batch size mismatch: %d logits rows vs %d labels", len(logits), len(labels))
	}

	var total float64
	for i, row := range logits {
		if len(row) != l.NumClasses {
			return 0, fmt.Errorf("row %d has %d logits, expected %d", i, len(row), l.NumClasses)
		}
		target, err := l.OneHot(labels[i])
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}

		logProbs := logSoftmax(row)
		var sample float64
		for j, p := range target {
			sample -= p * logProbs[j]
		}
		total += sample
	}
	return total / float64(len(logits)), nil
}

// logSoftmax subtracts the row max before exponentiating to stay finite
func logSoftmax(row []float64) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(v - maxVal)
	}
	logSum := maxVal + math.Log(sum)

	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = v - logSum
	}
	return out
}
