package config

const (
	defaultConfigPath            = "~/.config/auprobe/config.toml"
	projectConfigFile            = "auprobe.toml"
	dotEnvFile                   = ".env"
	defaultFFprobeBinary         = "ffprobe"
	defaultFFmpegBinary          = "ffmpeg"
	defaultRepeatTimes           = 3
	defaultTimeoutSeconds        = 10
	defaultRetryTimes            = 3
	defaultTimeoutGrowth         = 0.5
	defaultFailurePenaltySeconds = 100
	defaultMinLen                = 7
	defaultMaxLen                = 14
	defaultTargetLUFS            = -14
	defaultUpperLUFS             = -12
	defaultLowerLUFS             = -16
	defaultBalanceDB             = 10
	defaultQuietDB               = -30
	defaultCeilingDB             = 0
	defaultBatchConcurrency      = 4
	defaultBatchStartsPerSecond  = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Probe: Probe{
			FFprobeBinary:         defaultFFprobeBinary,
			FFmpegBinary:          defaultFFmpegBinary,
			RepeatTimes:           defaultRepeatTimes,
			TimeoutSeconds:        defaultTimeoutSeconds,
			RetryTimes:            defaultRetryTimes,
			TimeoutGrowth:         defaultTimeoutGrowth,
			FailurePenaltySeconds: defaultFailurePenaltySeconds,
		},
		Analysis: Analysis{
			Enabled:    true,
			MinLen:     defaultMinLen,
			MaxLen:     defaultMaxLen,
			TargetLUFS: defaultTargetLUFS,
			UpperLUFS:  defaultUpperLUFS,
			LowerLUFS:  defaultLowerLUFS,
			BalanceDB:  defaultBalanceDB,
			QuietDB:    defaultQuietDB,
			CeilingDB:  defaultCeilingDB,
		},
		Batch: Batch{
			Concurrency:     defaultBatchConcurrency,
			StartsPerSecond: defaultBatchStartsPerSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
