package main

import (
	"fmt"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"auprobe/internal/config"
	"auprobe/internal/session"
)

// probeFlags are the session knobs shared by probe, select, and batch.
// Only flags set on the command line override configuration.
type probeFlags struct {
	inputOptions string
	repeatTimes  int
	timeout      float64
	retryTimes   int
	minLen       float64
	maxLen       float64
	forceProto   bool
	jsonOutput   bool
}

func (f *probeFlags) register(cmd *cobra.Command, analysis bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.inputOptions, "input-options", "i", "", "Extra ffprobe/ffmpeg input options, shell quoted")
	flags.IntVarP(&f.repeatTimes, "repeat-times", "r", 0, "Repetitions per protocol")
	flags.Float64VarP(&f.timeout, "timeout", "t", 0, "Per-attempt timeout in seconds")
	flags.IntVar(&f.retryTimes, "retry-times", 0, "Attempts per repetition")
	flags.BoolVar(&f.forceProto, "force-proto", false, "Trust the declared scheme instead of racing alternatives")
	flags.BoolVar(&f.jsonOutput, "json", false, "Emit JSON even on a terminal")
	if analysis {
		flags.Float64Var(&f.minLen, "min-len", 0, "Minimum analyzed duration in seconds")
		flags.Float64Var(&f.maxLen, "max-len", 0, "Maximum analyzed duration in seconds for network sources")
	}
}

// apply overlays changed flags onto a copy of cfg.
func (f *probeFlags) apply(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	out := *cfg
	out.Probe.InputOptions = append([]string(nil), cfg.Probe.InputOptions...)
	changed := cmd.Flags().Changed

	if changed("input-options") {
		opts, err := shlex.Split(f.inputOptions)
		if err != nil {
			return nil, fmt.Errorf("parse --input-options: %w", err)
		}
		out.Probe.InputOptions = opts
	}
	if changed("repeat-times") {
		out.Probe.RepeatTimes = f.repeatTimes
	}
	if changed("timeout") {
		out.Probe.TimeoutSeconds = f.timeout
	}
	if changed("retry-times") {
		out.Probe.RetryTimes = f.retryTimes
	}
	if changed("force-proto") {
		out.Probe.ForceProto = f.forceProto
	}
	if changed("min-len") {
		out.Analysis.MinLen = f.minLen
	}
	if changed("max-len") {
		out.Analysis.MaxLen = f.maxLen
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *probeFlags) sessionOptions(cmd *cobra.Command, ctx *commandContext) (session.Options, *config.Config, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return session.Options{}, nil, err
	}
	effective, err := f.apply(cmd, cfg)
	if err != nil {
		return session.Options{}, nil, err
	}
	return session.OptionsFromConfig(effective), effective, nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
