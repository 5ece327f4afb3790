package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"auprobe/internal/media/audio"
	"auprobe/internal/media/loudness"
	"auprobe/internal/session"
)

// writeResult prints result as JSON when asked or when stdout is not a
// terminal, otherwise as tables.
func writeResult(cmd *cobra.Command, result session.Result, forceJSON bool) error {
	out := cmd.OutOrStdout()
	if forceJSON || !isTerminal(out) {
		return writeJSON(cmd, result)
	}
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderResult(result, colorize))
	return nil
}

func renderResult(result session.Result, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Selection", colorize) {
		b.WriteString(line + "\n")
	}
	rows := [][]string{
		{"Source", result.Source},
		{"Protocol", result.SelectedProtocol},
		{"URL", result.URL},
		{"Average response", formatSeconds(time.Duration(result.AverageResponseTime * float64(time.Second)))},
		{"Input options", strings.Join(result.InputOptions, " ")},
		{"Track", result.Track.Label()},
		{"Format", result.FormatName},
		{"Sample rate", formatKnown(result.SampleRate)},
	}
	b.WriteString(renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	b.WriteString("\n")

	if !result.Analyzed() {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\n")
	for _, line := range renderSectionHeader(fmt.Sprintf("Analysis (%ss)", loudness.FormatSeconds(result.TestedDuration)), colorize) {
		b.WriteString(line + "\n")
	}
	variants := loudness.Variants(result.Channels)
	metricRows := make([][]string, 0, len(variants))
	for _, v := range variants {
		vol, hasVol := result.Volume[v]
		lufs, hasLUFS := result.Loudness[v]
		if !hasVol && !hasLUFS {
			continue
		}
		metricRows = append(metricRows, []string{
			v.String(),
			formatDB(vol.MeanDB),
			formatDB(vol.MaxDB),
			strconv.FormatFloat(lufs.IntegratedLUFS, 'f', 1, 64),
		})
	}
	b.WriteString(renderTable(
		[]string{"Variant", "Mean dB", "Max dB", "LUFS"},
		metricRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n\n")

	flags := result.AnomalyFlags
	b.WriteString(renderStatusLine("Left only", flagKind(flags.LeftOnly), yesNo(flags.LeftOnly), colorize) + "\n")
	b.WriteString(renderStatusLine("Right only", flagKind(flags.RightOnly), yesNo(flags.RightOnly), colorize) + "\n")
	b.WriteString(renderStatusLine("Inverted", flagKind(flags.Inverted), yesNo(flags.Inverted), colorize) + "\n")
	b.WriteString(renderStatusLine("Too loud", flagKind(flags.TooLoud), yesNo(flags.TooLoud), colorize) + "\n")
	b.WriteString(renderStatusLine("Too quiet", flagKind(flags.TooQuiet), yesNo(flags.TooQuiet), colorize) + "\n")

	directives := "none"
	if len(result.OutputDirectives) > 0 {
		directives = strings.Join(result.OutputDirectives, ",")
	}
	b.WriteString(renderStatusLine("Output directives", statusInfo, directives, colorize))
	return b.String()
}

func flagKind(set bool) statusKind {
	if set {
		return statusWarn
	}
	return statusOK
}

func formatKnown(v int64) string {
	if v == audio.Unknown {
		return "unknown"
	}
	return strconv.FormatInt(v, 10)
}

func formatDB(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func isTerminal(w io.Writer) bool {
	return shouldColorize(w)
}
