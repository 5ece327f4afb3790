package loudness

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"auprobe/internal/services"
)

// Volume is a volumedetect report.
type Volume struct {
	MeanDB float64 `json:"mean_volume"`
	MaxDB  float64 `json:"max_volume"`
}

// Loudness is an ebur128 summary.
type Loudness struct {
	IntegratedLUFS float64 `json:"integrated_lufs"`
}

// Metrics holds the measurements of every analyzed variant.
type Metrics struct {
	Volume   map[Variant]Volume
	Loudness map[Variant]Loudness
}

var (
	volumeLine  = regexp.MustCompile(`^\[Parsed_volumedetect_(\d+) @ [^\]]+\]\s*(mean_volume|max_volume):\s*(\S+)\s*dB`)
	summaryLine = regexp.MustCompile(`^\[Parsed_ebur128_(\d+) @ [^\]]+\]\s*Summary:`)
	integrated  = regexp.MustCompile(`^\s*I:\s*(\S+)\s*LUFS`)
)

type volumeReport struct {
	mean, max       float64
	hasMean, hasMax bool
}

// Parse reads ffmpeg's stderr for p and returns the measurements of every
// slot. Lines for filters outside p are ignored. A slot without a value
// fails with services.ErrIncompleteMetrics.
func Parse(p Plan, output []byte) (Metrics, error) {
	volumes := make(map[Variant]*volumeReport)
	loudness := make(map[Variant]Loudness)

	summaryOpen := false
	var summaryFor Variant

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if m := volumeLine.FindStringSubmatch(line); m != nil {
			filter, ok := lookup(p, m[1], "volumedetect")
			value, err := strconv.ParseFloat(m[3], 64)
			if !ok || err != nil {
				continue
			}
			report := volumes[filter.Variant]
			if report == nil {
				report = &volumeReport{}
				volumes[filter.Variant] = report
			}
			if m[2] == "mean_volume" {
				report.mean, report.hasMean = value, true
			} else {
				report.max, report.hasMax = value, true
			}
			continue
		}

		if m := summaryLine.FindStringSubmatch(line); m != nil {
			filter, ok := lookup(p, m[1], "ebur128")
			summaryOpen, summaryFor = ok, filter.Variant
			continue
		}

		if summaryOpen {
			if m := integrated.FindStringSubmatch(line); m != nil {
				if value, err := strconv.ParseFloat(m[1], 64); err == nil {
					loudness[summaryFor] = Loudness{IntegratedLUFS: value}
				}
				summaryOpen = false
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Metrics{}, fmt.Errorf("read analysis output: %w", err)
	}

	metrics := Metrics{
		Volume:   make(map[Variant]Volume, len(volumes)),
		Loudness: loudness,
	}
	var missing []string
	for _, slot := range p.Slots() {
		switch slot.Stage {
		case StageVolume:
			report := volumes[slot.Variant]
			if report == nil || !report.hasMean || !report.hasMax {
				missing = append(missing, slot.String())
				continue
			}
			metrics.Volume[slot.Variant] = Volume{MeanDB: report.mean, MaxDB: report.max}
		case StageLoudness:
			if _, ok := loudness[slot.Variant]; !ok {
				missing = append(missing, slot.String())
			}
		}
	}
	if len(missing) > 0 {
		return Metrics{}, services.Wrap(services.ErrIncompleteMetrics, "parse analysis", "missing "+strings.Join(missing, ", "), nil)
	}
	return metrics, nil
}

func lookup(p Plan, index, name string) (Filter, bool) {
	n, err := strconv.Atoi(index)
	if err != nil {
		return Filter{}, false
	}
	return p.filterAt(n, name)
}
