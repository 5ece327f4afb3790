package session

import (
	"time"

	"auprobe/internal/config"
	"auprobe/internal/media/loudness"
	"auprobe/internal/media/runner"
	"auprobe/internal/source"
)

// Options configures a Session.
type Options struct {
	FFprobeBinary  string
	FFmpegBinary   string
	InputOptions   []string
	RepeatTimes    int
	RetryTimes     int
	Timeout        time.Duration
	TimeoutGrowth  float64
	FailurePenalty time.Duration
	ForceProto     bool

	// MinLen and MaxLen bound the analyzed duration in seconds.
	MinLen float64
	MaxLen float64
	// AnalysisTimeout of zero means Timeout plus the tested duration.
	AnalysisTimeout time.Duration
	Thresholds      loudness.Thresholds
	Gain            loudness.Gain

	Executor runner.Executor
	Stat     source.StatFunc
	Clock    func() time.Time
}

// OptionsFromConfig maps configuration onto session options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Options{
		FFprobeBinary:   cfg.Probe.FFprobeBinary,
		FFmpegBinary:    cfg.Probe.FFmpegBinary,
		InputOptions:    append([]string(nil), cfg.Probe.InputOptions...),
		RepeatTimes:     cfg.Probe.RepeatTimes,
		RetryTimes:      cfg.Probe.RetryTimes,
		Timeout:         cfg.ProbeTimeout(),
		TimeoutGrowth:   cfg.Probe.TimeoutGrowth,
		FailurePenalty:  cfg.FailurePenalty(),
		ForceProto:      cfg.Probe.ForceProto,
		MinLen:          cfg.Analysis.MinLen,
		MaxLen:          cfg.Analysis.MaxLen,
		AnalysisTimeout: cfg.AnalysisTimeout(),
		Thresholds: loudness.Thresholds{
			BalanceDB: cfg.Analysis.BalanceDB,
			QuietDB:   cfg.Analysis.QuietDB,
			CeilingDB: cfg.Analysis.CeilingDB,
		},
		Gain: loudness.Gain{
			TargetLUFS: cfg.Analysis.TargetLUFS,
			UpperLUFS:  cfg.Analysis.UpperLUFS,
			LowerLUFS:  cfg.Analysis.LowerLUFS,
		},
	}
}

func (o Options) analysisTimeout(tested float64) time.Duration {
	if o.AnalysisTimeout > 0 {
		return o.AnalysisTimeout
	}
	return o.Timeout + time.Duration(tested*float64(time.Second))
}
