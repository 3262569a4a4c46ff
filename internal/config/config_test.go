package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if err := cfg.ValidateInputs(); err != nil {
		t.Fatalf("DefaultConfig().ValidateInputs() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Tracker.Interval = 0 },
			wantErr: "tracker.interval",
		},
		{
			name:    "negative start epoch",
			mutate:  func(c *Config) { c.Tracker.EvalStartEpoch = -1 },
			wantErr: "tracker.eval_start_epoch",
		},
		{
			name:   "start epoch zero",
			mutate: func(c *Config) { c.Tracker.EvalStartEpoch = 0 },
		},
		{
			name:    "unknown checkpoint format",
			mutate:  func(c *Config) { c.Tracker.CheckpointFormat = "pickle" },
			wantErr: "tracker.checkpoint_format",
		},
		{
			name:    "unknown schedule",
			mutate:  func(c *Config) { c.Schedule.Kind = "linear" },
			wantErr: "schedule.kind",
		},
		{
			name: "step schedule without decay epochs",
			mutate: func(c *Config) {
				c.Schedule.Kind = ScheduleStep
				c.Schedule.DecayEpochs = 0
			},
			wantErr: "schedule.decay_epochs",
		},
		{
			name:    "one class",
			mutate:  func(c *Config) { c.Loss.NumClasses = 1 },
			wantErr: "loss.num_classes",
		},
		{
			name:    "smooth factor of one",
			mutate:  func(c *Config) { c.Loss.SmoothFactor = 1.0 },
			wantErr: "loss.smooth_factor",
		},
		{
			name:    "same log fields",
			mutate:  func(c *Config) { c.LogScan.ValueField = c.LogScan.KeyField },
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "trainkit.toml")

	content := `
[tracker]
interval = 2
eval_start_epoch = 3
save_best_ckpt = false
ckpt_directory = "ckpts"
metrics_name = "top1"

[schedule]
kind = "step"
total_epochs = 10
steps_per_epoch = 4
base_lr = 0.05
decay_epochs = 2
decay_rate = 0.97

[weight_decay]
value = 0.0001
skip_list = ["bn.gamma"]
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tracker.Interval != 2 || cfg.Tracker.EvalStartEpoch != 3 {
		t.Errorf("unexpected tracker stride: %+v", cfg.Tracker)
	}
	if cfg.Tracker.SaveBestCkpt {
		t.Error("Expected save_best_ckpt to be false")
	}
	if cfg.Tracker.BestCkptName != DefaultBestCkptName {
		t.Errorf("Expected default best_ckpt_name, got %s", cfg.Tracker.BestCkptName)
	}
	if cfg.Schedule.Kind != ScheduleStep || cfg.Schedule.DecayRate != 0.97 {
		t.Errorf("unexpected schedule: %+v", cfg.Schedule)
	}
	if len(cfg.WeightDecay.SkipList) != 1 || cfg.WeightDecay.SkipList[0] != "bn.gamma" {
		t.Errorf("unexpected skip list: %v", cfg.WeightDecay.SkipList)
	}
	if cfg.LogScan.Marker != DefaultLogMarker {
		t.Errorf("Expected default marker, got %s", cfg.LogScan.Marker)
	}
}

func TestLoadExplicitZeroInterval(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "trainkit.toml")

	if err := os.WriteFile(configPath, []byte("[tracker]\ninterval = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for interval = 0")
	}
}

func TestLoadYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "trainkit.yaml")

	content := `
tracker:
  interval: 5
  best_ckpt_name: top.ckpt
  checkpoint_format: proto
loss:
  smooth_factor: 0.2
  num_classes: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracker.Interval != 5 || cfg.Tracker.BestCkptName != "top.ckpt" {
		t.Errorf("unexpected tracker config: %+v", cfg.Tracker)
	}
	if cfg.Tracker.CheckpointFormat != FormatProto {
		t.Errorf("Expected proto format, got %s", cfg.Tracker.CheckpointFormat)
	}
	if cfg.Loss.NumClasses != 10 || cfg.Loss.SmoothFactor != 0.2 {
		t.Errorf("unexpected loss config: %+v", cfg.Loss)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TRAINKIT_CKPT_DIR", "/tmp/elsewhere")
	t.Setenv("TRAINKIT_SAVE_BEST_CKPT", "no")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Tracker.CkptDirectory != "/tmp/elsewhere" {
		t.Errorf("Expected ckpt dir override, got %s", cfg.Tracker.CkptDirectory)
	}
	if cfg.Tracker.SaveBestCkpt {
		t.Error("Expected save_best_ckpt to be disabled by env")
	}
}

func TestApplyEnvInvalidBool(t *testing.T) {
	t.Setenv("TRAINKIT_SAVE_BEST_CKPT", "sometimes")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("Expected error for invalid boolean")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Tracker.Interval != 1 {
		t.Errorf("Expected default interval, got %d", cfg.Tracker.Interval)
	}
}

func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"path in ckpt name", func(c *Config) { c.Tracker.BestCkptName = "../best.ckpt" }, "not a path"},
		{"dot dot", func(c *Config) { c.Tracker.BestCkptName = ".." }, "file name"},
		{"control char in metric", func(c *Config) { c.Tracker.MetricsName = "acc\x00" }, "control characters"},
		{"long metric", func(c *Config) { c.Tracker.MetricsName = strings.Repeat("a", MaxMetricsNameLength+1) }, "maximum length"},
		{"huge skip list", func(c *Config) { c.WeightDecay.SkipList = make([]string, MaxSkipListSize+1) }, "skip_list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.ValidateInputs()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateInputs() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
