// Package schedule generates per-step learning-rate arrays
package schedule

import (
	"fmt"

	"github.com/lamim/trainkit/internal/config"
)

// Scheduler produces the learning rate for every training step up front
type Scheduler interface {
	// Steps returns one learning rate per step
	Steps() ([]float32, error)

	// Name returns the scheduler name for logging
	Name() string
}

// FromConfig builds the scheduler selected by cfg.Kind
func FromConfig(cfg config.ScheduleConfig) (Scheduler, error) {
	switch cfg.Kind {
	case config.ScheduleCosine:
		return &CosineWarmup{
			LRInit:        cfg.LRInit,
			LREnd:         cfg.LREnd,
			LRMax:         cfg.LRMax,
			WarmupEpochs:  cfg.WarmupEpochs,
			TotalEpochs:   cfg.TotalEpochs,
			StepsPerEpoch: cfg.StepsPerEpoch,
		}, nil
	case config.ScheduleStep:
		return &StepDecay{
			BaseLR:        cfg.BaseLR,
			TotalEpochs:   cfg.TotalEpochs,
			StepsPerEpoch: cfg.StepsPerEpoch,
			DecayEpochs:   cfg.DecayEpochs,
			DecayRate:     cfg.DecayRate,
			WarmupEpochs:  cfg.WarmupEpochs,
			WarmupLRInit:  cfg.WarmupLRInit,
			GlobalEpoch:   cfg.GlobalEpoch,
		}, nil
	default:
		return nil, fmt.Errorf("unknown schedule kind: %s", cfg.Kind)
	}
}
