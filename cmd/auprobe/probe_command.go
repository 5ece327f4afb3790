package main

import (
	"github.com/spf13/cobra"

	"auprobe/internal/session"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var flags probeFlags
	var skipAnalysis bool

	cmd := &cobra.Command{
		Use:   "probe <url|path>",
		Short: "Select protocol and track, then measure volume and loudness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := flags.sessionOptions(cmd, ctx)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s, err := session.New(args[0], opts, logger)
			if err != nil {
				return err
			}

			var result session.Result
			if skipAnalysis || !cfg.Analysis.Enabled {
				result, err = s.Select(cmd.Context())
			} else {
				result, err = s.Analyze(cmd.Context())
			}
			if err != nil {
				return err
			}
			return writeResult(cmd, result, flags.jsonOutput)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&skipAnalysis, "no-analysis", false, "Skip the loudness pass")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "select <url|path>",
		Short: "Select the fastest protocol and best audio track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := flags.sessionOptions(cmd, ctx)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s, err := session.New(args[0], opts, logger)
			if err != nil {
				return err
			}
			result, err := s.Select(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd, result, flags.jsonOutput)
		},
	}
	flags.register(cmd, false)
	return cmd
}
