package schedule

import (
	"fmt"
	"math"
)

// StepDecay multiplies BaseLR by DecayRate every DecayEpochs epochs after an
// optional linear warmup. Rates above 1 are inverted so the schedule always decays.
type StepDecay struct {
	BaseLR        float64
	TotalEpochs   int
	StepsPerEpoch int
	DecayEpochs   int     // Epochs between decays (default 1)
	DecayRate     float64 // Multiplicative factor per decay (default 0.9)
	WarmupEpochs  float64
	WarmupLRInit  float64
	GlobalEpoch   int // Epochs already trained; their steps are dropped from the result
}

func (s *StepDecay) Name() string {
	return "StepDecay"
}

func (s *StepDecay) Steps() ([]float32, error) {
	if s.TotalEpochs < 1 || s.StepsPerEpoch < 1 {
		return nil, fmt.Errorf("total epochs and steps per epoch must be positive (got %d, %d)", s.TotalEpochs, s.StepsPerEpoch)
	}
	decayEpochs := s.DecayEpochs
	if decayEpochs == 0 {
		decayEpochs = 1
	}
	if decayEpochs < 0 {
		return nil, fmt.Errorf("decay epochs must be positive (got %d)", s.DecayEpochs)
	}
	decayRate := s.DecayRate
	if decayRate == 0 {
		decayRate = 0.9
	}
	if decayRate < 0 {
		return nil, fmt.Errorf("decay rate must be positive (got %g)", s.DecayRate)
	}
	if decayRate > 1 {
		decayRate = 1 / decayRate
	}
	if s.GlobalEpoch < 0 || s.GlobalEpoch > s.TotalEpochs {
		return nil, fmt.Errorf("global epoch must be between 0 and %d (got %d)", s.TotalEpochs, s.GlobalEpoch)
	}

	var warmupDelta float64
	if s.WarmupEpochs > 0 {
		warmupDelta = (s.BaseLR - s.WarmupLRInit) / s.WarmupEpochs
	}

	totalSteps := s.StepsPerEpoch * s.TotalEpochs
	globalSteps := s.StepsPerEpoch * s.GlobalEpoch

	lrs := make([]float32, 0, totalSteps-globalSteps)
	for i := globalSteps; i < totalSteps; i++ {
		epoch := i / s.StepsPerEpoch
		var lr float64
		if float64(epoch) < s.WarmupEpochs {
			lr = s.WarmupLRInit + float64(epoch)*warmupDelta
		} else {
			lr = s.BaseLR * math.Pow(decayRate, float64(epoch/decayEpochs))
		}
		lrs = append(lrs, float32(lr))
	}
	return lrs, nil
}
