package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"auprobe/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check that ffprobe and ffmpeg are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.MediaRequirements(cfg.Probe.FFprobeBinary, cfg.Probe.FFmpegBinary, cfg.Analysis.Enabled))
			statuses = deps.ResolveVersions(cmd.Context(), nil, statuses)

			missing := 0
			for _, s := range statuses {
				if !s.Available && !s.Optional {
					missing++
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, s := range statuses {
					kind, message := statusOK, s.Version
					if message == "" {
						message = s.Command
					}
					if !s.Available {
						kind, message = statusError, s.Detail
						if s.Optional {
							kind = statusWarn
						}
					}
					fmt.Fprintln(out, renderStatusLine(s.Name, kind, message, colorize))
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d required dependencies missing", missing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
