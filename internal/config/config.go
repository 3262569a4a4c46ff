package config

import (
	"fmt"
	"os"

	"github.com/lamim/trainkit/internal/util"
)

// Checkpoint formats accepted by tracker.checkpoint_format
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// Schedule kinds accepted by schedule.kind
const (
	ScheduleCosine = "cosine"
	ScheduleStep   = "step"
)

// Config represents the complete application configuration
type Config struct {
	Tracker     TrackerConfig     `toml:"tracker" yaml:"tracker"`
	Schedule    ScheduleConfig    `toml:"schedule" yaml:"schedule"`
	Loss        LossConfig        `toml:"loss" yaml:"loss"`
	WeightDecay WeightDecayConfig `toml:"weight_decay" yaml:"weight_decay"`
	LogScan     LogScanConfig     `toml:"log_scan" yaml:"log_scan"`
}

// TrackerConfig holds best-checkpoint tracking settings
type TrackerConfig struct {
	Interval         int    `toml:"interval" yaml:"interval"`                   // Evaluate every N epochs (>= 1)
	EvalStartEpoch   int    `toml:"eval_start_epoch" yaml:"eval_start_epoch"`   // First epoch that is evaluated
	SaveBestCkpt     bool   `toml:"save_best_ckpt" yaml:"save_best_ckpt"`       // Persist the best state (false = track only)
	CkptDirectory    string `toml:"ckpt_directory" yaml:"ckpt_directory"`       // Created if absent
	BestCkptName     string `toml:"best_ckpt_name" yaml:"best_ckpt_name"`       // File name inside ckpt_directory
	MetricsName      string `toml:"metrics_name" yaml:"metrics_name"`           // Used for reporting only
	CheckpointFormat string `toml:"checkpoint_format" yaml:"checkpoint_format"` // json or proto
}

// ScheduleConfig selects and parameterizes a learning-rate generator
type ScheduleConfig struct {
	Kind          string  `toml:"kind" yaml:"kind"` // cosine or step
	TotalEpochs   int     `toml:"total_epochs" yaml:"total_epochs"`
	StepsPerEpoch int     `toml:"steps_per_epoch" yaml:"steps_per_epoch"`
	WarmupEpochs  float64 `toml:"warmup_epochs" yaml:"warmup_epochs"`

	// cosine
	LRInit float64 `toml:"lr_init" yaml:"lr_init"`
	LREnd  float64 `toml:"lr_end" yaml:"lr_end"`
	LRMax  float64 `toml:"lr_max" yaml:"lr_max"`

	// step
	BaseLR       float64 `toml:"base_lr" yaml:"base_lr"`
	DecayEpochs  int     `toml:"decay_epochs" yaml:"decay_epochs"`
	DecayRate    float64 `toml:"decay_rate" yaml:"decay_rate"`
	WarmupLRInit float64 `toml:"warmup_lr_init" yaml:"warmup_lr_init"`
	GlobalEpoch  int     `toml:"global_epoch" yaml:"global_epoch"`
}

// LossConfig holds label smoothing settings
type LossConfig struct {
	SmoothFactor float64 `toml:"smooth_factor" yaml:"smooth_factor"`
	NumClasses   int     `toml:"num_classes" yaml:"num_classes"`
}

// WeightDecayConfig holds parameter grouping settings
type WeightDecayConfig struct {
	Value    float64  `toml:"value" yaml:"value"`
	SkipList []string `toml:"skip_list" yaml:"skip_list"` // Parameter names that never decay
}

// LogScanConfig describes the training log layout read by the accuracy scanner
type LogScanConfig struct {
	Path         string `toml:"path" yaml:"path"`
	Marker       string `toml:"marker" yaml:"marker"`           // Substring selecting validation lines
	KeyField     int    `toml:"key_field" yaml:"key_field"`     // Token index of the checkpoint key
	ValueField   int    `toml:"value_field" yaml:"value_field"` // Token index of the accuracy value
	Strict       bool   `toml:"strict" yaml:"strict"`           // Fail on malformed lines instead of skipping them
	ShowProgress bool   `toml:"show_progress" yaml:"show_progress"`
}

const (
	// MaxInterval is the maximum allowed evaluation interval
	MaxInterval = 100000
	// MaxNumClasses is the maximum number of classes for the loss
	MaxNumClasses = 1000000
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.Interval < 1 {
		return fmt.Errorf("tracker.interval must be at least 1 (got %d)", c.Tracker.Interval)
	}
	if c.Tracker.Interval > MaxInterval {
		return fmt.Errorf("tracker.interval must not exceed %d (got %d)", MaxInterval, c.Tracker.Interval)
	}
	if c.Tracker.EvalStartEpoch < 0 {
		return fmt.Errorf("tracker.eval_start_epoch must not be negative (got %d)", c.Tracker.EvalStartEpoch)
	}
	if c.Tracker.CkptDirectory == "" {
		return fmt.Errorf("tracker.ckpt_directory is required")
	}
	if c.Tracker.BestCkptName == "" {
		return fmt.Errorf("tracker.best_ckpt_name is required")
	}
	if c.Tracker.CheckpointFormat != FormatJSON && c.Tracker.CheckpointFormat != FormatProto {
		return fmt.Errorf("tracker.checkpoint_format must be one of: json, proto (got %s)", c.Tracker.CheckpointFormat)
	}

	if err := c.Schedule.validate(); err != nil {
		return err
	}

	if c.Loss.NumClasses < 2 || c.Loss.NumClasses > MaxNumClasses {
		return fmt.Errorf("loss.num_classes must be between 2 and %d (got %d)", MaxNumClasses, c.Loss.NumClasses)
	}
	if c.Loss.SmoothFactor < 0 || c.Loss.SmoothFactor >= 1.0 {
		return fmt.Errorf("loss.smooth_factor must be in [0.0, 1.0) (got %.2f)", c.Loss.SmoothFactor)
	}

	if c.WeightDecay.Value < 0 {
		return fmt.Errorf("weight_decay.value must not be negative (got %g)", c.WeightDecay.Value)
	}

	if c.LogScan.Marker == "" {
		return fmt.Errorf("log_scan.marker is required")
	}
	if c.LogScan.KeyField < 0 || c.LogScan.ValueField < 0 {
		return fmt.Errorf("log_scan.key_field and log_scan.value_field must not be negative")
	}
	if c.LogScan.KeyField == c.LogScan.ValueField {
		return fmt.Errorf("log_scan.key_field and log_scan.value_field must differ (both %d)", c.LogScan.KeyField)
	}

	return nil
}

func (s ScheduleConfig) validate() error {
	if s.Kind != ScheduleCosine && s.Kind != ScheduleStep {
		return fmt.Errorf("schedule.kind must be one of: cosine, step (got %s)", s.Kind)
	}
	if s.TotalEpochs < 1 {
		return fmt.Errorf("schedule.total_epochs must be at least 1")
	}
	if s.StepsPerEpoch < 1 {
		return fmt.Errorf("schedule.steps_per_epoch must be at least 1")
	}
	if s.WarmupEpochs < 0 {
		return fmt.Errorf("schedule.warmup_epochs must not be negative (got %g)", s.WarmupEpochs)
	}
	if s.Kind == ScheduleStep {
		if s.DecayEpochs < 1 {
			return fmt.Errorf("schedule.decay_epochs must be at least 1")
		}
		if s.DecayRate <= 0 {
			return fmt.Errorf("schedule.decay_rate must be positive (got %g)", s.DecayRate)
		}
		if s.GlobalEpoch < 0 || s.GlobalEpoch > s.TotalEpochs {
			return fmt.Errorf("schedule.global_epoch must be between 0 and total_epochs (got %d)", s.GlobalEpoch)
		}
	}
	return nil
}

// ApplyEnv applies environment variable overrides on top of the loaded file
func (c *Config) ApplyEnv() error {
	if dir := os.Getenv("TRAINKIT_CKPT_DIR"); dir != "" {
		c.Tracker.CkptDirectory = dir
	}
	if v := os.Getenv("TRAINKIT_SAVE_BEST_CKPT"); v != "" {
		save, err := util.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRAINKIT_SAVE_BEST_CKPT: %w", err)
		}
		c.Tracker.SaveBestCkpt = save
	}
	if path := os.Getenv("TRAINKIT_LOG_PATH"); path != "" {
		c.LogScan.Path = path
	}
	return nil
}
