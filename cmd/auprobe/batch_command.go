package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"auprobe/internal/batch"
)

type outcomeWriter interface {
	Write(ctx context.Context, o batch.Outcome) error
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags probeFlags
	var outputPath string
	var concurrency int
	var startsPerSecond float64
	var analyze bool

	cmd := &cobra.Command{
		Use:   "batch <sources-file|->",
		Short: "Probe every source listed in a file and write JSON lines",
		Long: "Reads one source per line (blank lines and lines starting with # are skipped) " +
			"and runs an independent session for each. Failures are recorded with an error field.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := flags.sessionOptions(cmd, ctx)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sources, err := readSourceList(cmd, args[0])
			if err != nil {
				return err
			}

			runOpts := batch.Options{
				Concurrency:     cfg.Batch.Concurrency,
				StartsPerSecond: cfg.Batch.StartsPerSecond,
				Analyze:         cfg.Analysis.Enabled,
				Session:         opts,
			}
			if cmd.Flags().Changed("concurrency") {
				runOpts.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate") {
				runOpts.StartsPerSecond = startsPerSecond
			}
			if cmd.Flags().Changed("analyze") {
				runOpts.Analyze = analyze
			}

			var writer outcomeWriter = batch.NewStreamWriter(cmd.OutOrStdout())
			if path := strings.TrimSpace(outputPath); path != "" && path != "-" {
				writer = batch.NewJSONLWriter(path)
			}

			var failed, written int
			var writeErr error
			runErr := batch.Run(cmd.Context(), sources, runOpts, logger, func(o batch.Outcome) {
				if o.Err != nil {
					failed++
				}
				if err := writer.Write(cmd.Context(), o); err != nil && writeErr == nil {
					writeErr = err
				}
				written++
			})
			if runErr != nil {
				return runErr
			}
			if writeErr != nil {
				return writeErr
			}
			if jw, ok := writer.(*batch.JSONLWriter); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records (%d failed) to %s\n", written, failed, jw.Path())
			}
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Append JSON lines to this file instead of stdout")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Sessions run in parallel")
	cmd.Flags().Float64Var(&startsPerSecond, "rate", 0, "Session starts per second (0 disables pacing)")
	cmd.Flags().BoolVar(&analyze, "analyze", true, "Run the loudness pass for every source")
	return cmd
}

func readSourceList(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sources: %w", err)
		}
		defer file.Close()
		r = file
	}
	sources, err := batch.ReadSources(r)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources in %s", path)
	}
	return sources, nil
}
