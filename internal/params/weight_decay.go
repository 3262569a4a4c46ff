// Package params groups trainable parameters for the optimizer
package params

import (
	"strings"

	"github.com/lamim/trainkit/pkg/models"
)

// AddWeightDecay splits params into a no-decay group (1-D tensors, biases and
// skipList names) and a decay group. The no-decay group is always first.
func AddWeightDecay(params []models.Parameter, weightDecay float64, skipList []string) []models.ParamGroup {
	skip := make(map[string]struct{}, len(skipList))
	for _, name := range skipList {
		skip[name] = struct{}{}
	}

	decay := []models.Parameter{}
	noDecay := []models.Parameter{}
	for _, p := range params {
		_, skipped := skip[p.Name]
		if len(p.Shape) == 1 || strings.HasSuffix(p.Name, ".bias") || skipped {
			noDecay = append(noDecay, p)
		} else {
			decay = append(decay, p)
		}
	}

	return []models.ParamGroup{
		{Params: noDecay, WeightDecay: 0},
		{Params: decay, WeightDecay: weightDecay},
	}
}

// CountParams returns the total number of scalar values across params.
// A parameter with an empty shape is a scalar and counts as one.
func CountParams(params []models.Parameter) int64 {
	var total int64
	for _, p := range params {
		n := int64(1)
		for _, d := range p.Shape {
			n *= int64(d)
		}
		total += n
	}
	return total
}
