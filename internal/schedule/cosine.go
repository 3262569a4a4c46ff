package schedule

import (
	"fmt"
	"math"
)

// CosineWarmup ramps linearly from LRInit to LRMax over the warmup epochs and
// then follows a half cosine from LRMax down to LREnd
type CosineWarmup struct {
	LRInit        float64
	LREnd         float64
	LRMax         float64
	WarmupEpochs  float64
	TotalEpochs   int
	StepsPerEpoch int
}

func (s *CosineWarmup) Name() string {
	return "CosineWarmup"
}

func (s *CosineWarmup) Steps() ([]float32, error) {
	if s.TotalEpochs < 1 || s.StepsPerEpoch < 1 {
		return nil, fmt.Errorf("total epochs and steps per epoch must be positive (got %d, %d)", s.TotalEpochs, s.StepsPerEpoch)
	}
	if s.WarmupEpochs < 0 || s.WarmupEpochs > float64(s.TotalEpochs) {
		return nil, fmt.Errorf("warmup epochs must be between 0 and %d (got %g)", s.TotalEpochs, s.WarmupEpochs)
	}

	totalSteps := s.StepsPerEpoch * s.TotalEpochs
	warmupSteps := float64(s.StepsPerEpoch) * s.WarmupEpochs

	lrs := make([]float32, totalSteps)
	for i := 0; i < totalSteps; i++ {
		var lr float64
		step := float64(i)
		if step < warmupSteps {
			lr = s.LRInit + (s.LRMax-s.LRInit)*step/warmupSteps
		} else {
			progress := (step - warmupSteps) / (float64(totalSteps) - warmupSteps)
			lr = s.LREnd + (s.LRMax-s.LREnd)*(1+math.Cos(math.Pi*progress))/2
		}
		if lr < 0 {
			lr = 0
		}
		lrs[i] = float32(lr)
	}
	return lrs, nil
}
