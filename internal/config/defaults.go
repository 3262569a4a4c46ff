package config

// Default values used when a field is absent from the config file
const (
	DefaultBestCkptName = "best.ckpt"
	DefaultMetricsName  = "acc"
	DefaultLogMarker    = "Validation-Loss"
	DefaultKeyField     = 1
	DefaultValueField   = 8
)

// DefaultConfig returns the default configuration.
// Files are decoded on top of it so explicitly written zeros still reach Validate.
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Interval:         1,
			EvalStartEpoch:   1,
			SaveBestCkpt:     true,
			CkptDirectory:    "./",
			BestCkptName:     DefaultBestCkptName,
			MetricsName:      DefaultMetricsName,
			CheckpointFormat: FormatJSON,
		},
		Schedule: ScheduleConfig{
			Kind:          ScheduleCosine,
			TotalEpochs:   350,
			StepsPerEpoch: 1,
			WarmupEpochs:  0,
			LRInit:        0,
			LREnd:         0,
			LRMax:         0.1,
			BaseLR:        0.1,
			DecayEpochs:   1,
			DecayRate:     0.9,
		},
		Loss: LossConfig{
			SmoothFactor: 0.1,
			NumClasses:   1000,
		},
		WeightDecay: WeightDecayConfig{
			Value: 1e-5,
		},
		LogScan: LogScanConfig{
			Marker:     DefaultLogMarker,
			KeyField:   DefaultKeyField,
			ValueField: DefaultValueField,
			Strict:     true,
		},
	}
}
