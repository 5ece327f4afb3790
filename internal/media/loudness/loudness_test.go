package loudness

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"auprobe/internal/services"
)

// renderOutput fabricates ffmpeg stderr for p, interleaving noise the parser
// must ignore. values supplies the mean volume for each variant.
func renderOutput(p Plan, values func(Variant) (mean, max, lufs float64)) string {
	var b strings.Builder
	b.WriteString("Input #0, mp3, from 'clip.mp3':\n  Duration: 00:00:05.00\n")
	for n, f := range p.Filters() {
		mean, max, lufs := values(f.Variant)
		switch f.Stage {
		case StageVolume:
			fmt.Fprintf(&b, "[Parsed_volumedetect_%d @ 0x55d0c0%04x] n_samples: 441000\n", n, n)
			fmt.Fprintf(&b, "[Parsed_volumedetect_%d @ 0x55d0c0%04x] mean_volume: %.1f dB\n", n, n, mean)
			fmt.Fprintf(&b, "[Parsed_volumedetect_%d @ 0x55d0c0%04x] max_volume: %.1f dB\n", n, n, max)
		case StageLoudness:
			fmt.Fprintf(&b, "[Parsed_ebur128_%d @ 0x55d0c0%04x] t: 0.1 TARGET:-23 LUFS M:-120.7 S:-120.7 I: -70.0 LUFS LRA: 0.0 LU\n", n, n)
			fmt.Fprintf(&b, "[Parsed_ebur128_%d @ 0x55d0c0%04x] Summary:\n\n  Integrated loudness:\n    I:         %.1f LUFS\n    Threshold: -30.0 LUFS\n\n  Loudness range:\n    LRA:         5.0 LU\n", n, n, lufs)
		}
	}
	b.WriteString("size=N/A time=00:00:05.00 bitrate=N/A speed= 200x\n")
	return b.String()
}

func variantValues(v Variant) (float64, float64, float64) {
	switch v {
	case Original:
		return -20, -1, -18
	case Merged:
		return -21, -2, -19
	}
	i, _ := v.ChannelIndex()
	return -22 - float64(i), -3 - float64(i), -20 - float64(i)
}

func TestPlanRoundTrip(t *testing.T) {
	for channels := 1; channels <= 6; channels++ {
		t.Run(fmt.Sprintf("%dch", channels), func(t *testing.T) {
			plan := NewPlan(1, channels, 10)
			want := 1 + channels
			if channels == 2 {
				want++
			}
			if got := len(plan.Variants()); got != want {
				t.Fatalf("expected %d variants, got %d", want, got)
			}
			if got := len(plan.Slots()); got != 2*want {
				t.Fatalf("expected %d slots, got %d", 2*want, got)
			}

			metrics, err := Parse(plan, []byte(renderOutput(plan, variantValues)))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if len(metrics.Volume) != want || len(metrics.Loudness) != want {
				t.Fatalf("expected %d variants measured, got %d volume %d loudness", want, len(metrics.Volume), len(metrics.Loudness))
			}
			for _, v := range plan.Variants() {
				mean, max, lufs := variantValues(v)
				if got := metrics.Volume[v]; got != (Volume{MeanDB: mean, MaxDB: max}) {
					t.Fatalf("%s volume = %+v", v, got)
				}
				if got := metrics.Loudness[v].IntegratedLUFS; got != lufs {
					t.Fatalf("%s loudness = %v, want %v", v, got, lufs)
				}
			}
		})
	}
}

func TestPlanGraphAndArgs(t *testing.T) {
	plan := NewPlan(1, 2, 14)
	wantGraph := "[0:1]volumedetect,ebur128[cfull];" +
		"[0:1]pan=mono|c0=c0,volumedetect,ebur128[c0];" +
		"[0:1]pan=mono|c0=c1,volumedetect,ebur128[c1];" +
		"[0:1]pan=mono|c0=0.5*c0+0.5*c1,volumedetect,ebur128[cmerged]"
	if got := plan.Graph(); got != wantGraph {
		t.Fatalf("unexpected graph:\n got %s\nwant %s", got, wantGraph)
	}

	args := plan.Args(Invocation{URL: "rtsp://h/s", InputOptions: []string{"-rtsp_transport", "tcp"}})
	want := []string{
		"ffmpeg", "-nostdin", "-hide_banner", "-nostats", "-t", "14",
		"-rtsp_transport", "tcp", "-i", "rtsp://h/s", "-filter_complex", wantGraph,
		"-map", "[cfull]", "-f", "null", "-",
		"-map", "[c0]", "-f", "null", "-",
		"-map", "[c1]", "-f", "null", "-",
		"-map", "[cmerged]", "-f", "null", "-",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", args, want)
	}
}

func TestPlanUnknownChannels(t *testing.T) {
	plan := NewPlan(0, -1, 7)
	if got := plan.Variants(); !reflect.DeepEqual(got, []Variant{Original}) {
		t.Fatalf("expected original only, got %v", got)
	}
	if plan.Graph() != "[0:0]volumedetect,ebur128[cfull]" {
		t.Fatalf("unexpected graph %q", plan.Graph())
	}
}

func TestParseReportsMissingSlots(t *testing.T) {
	plan := NewPlan(0, 2, 10)
	output := renderOutput(plan, variantValues)
	// Drop the merged branch's loudness summary and the channel 1 max volume.
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "Parsed_volumedetect_6 ") && strings.Contains(line, "max_volume") {
			continue
		}
		if strings.Contains(line, "Parsed_ebur128_10 ") && strings.Contains(line, "Summary") {
			continue
		}
		kept = append(kept, line)
	}
	_, err := Parse(plan, []byte(strings.Join(kept, "\n")))
	if !errors.Is(err, services.ErrIncompleteMetrics) {
		t.Fatalf("expected ErrIncompleteMetrics, got %v", err)
	}
	if !strings.Contains(err.Error(), "channel_1/volume") || !strings.Contains(err.Error(), "merged/loudness") {
		t.Fatalf("expected missing slots named, got %q", err)
	}
}

func TestParseIgnoresForeignFilters(t *testing.T) {
	plan := NewPlan(0, 1, 10)
	output := renderOutput(plan, variantValues) +
		"[Parsed_volumedetect_40 @ 0x1] mean_volume: 0.0 dB\n" +
		"[Parsed_ebur128_0 @ 0x1] Summary:\n    I: 5.0 LUFS\n"
	metrics, err := Parse(plan, []byte(output))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if metrics.Volume[Original].MeanDB != -20 {
		t.Fatalf("foreign filter overwrote original volume: %+v", metrics.Volume[Original])
	}
}

func TestParseSilentTrack(t *testing.T) {
	plan := NewPlan(0, 1, 10)
	output := strings.ReplaceAll(renderOutput(plan, variantValues), "mean_volume: -20.0 dB", "mean_volume: -inf dB")
	metrics, err := Parse(plan, []byte(output))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !Classify(metrics, 1, DefaultThresholds()).TooQuiet {
		t.Fatalf("expected silent track to be too quiet")
	}
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		local    bool
		want     float64
	}{
		{name: "local short", duration: 5, local: true, want: 10},
		{name: "local long", duration: 600, local: true, want: 600},
		{name: "network long", duration: 600, want: 14},
		{name: "network inside window", duration: 12, want: 12},
		{name: "unknown", duration: -1, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDuration(tt.duration, 10, 14, tt.local); got != tt.want {
				t.Fatalf("ClampDuration = %v, want %v", got, tt.want)
			}
		})
	}
}

func stereo(ch0, ch1, merged float64) Metrics {
	return Metrics{
		Volume: map[Variant]Volume{
			Original:   {MeanDB: -15, MaxDB: -1},
			Channel(0): {MeanDB: ch0, MaxDB: -1},
			Channel(1): {MeanDB: ch1, MaxDB: -1},
			Merged:     {MeanDB: merged, MaxDB: -1},
		},
		Loudness: map[Variant]Loudness{
			Original:   {IntegratedLUFS: -14},
			Channel(0): {IntegratedLUFS: -14},
			Channel(1): {IntegratedLUFS: -14},
			Merged:     {IntegratedLUFS: -14},
		},
	}
}

func TestClassifyLeftOnly(t *testing.T) {
	metrics := stereo(-10, -25, -12)
	flags := Classify(metrics, 2, DefaultThresholds())
	if !flags.LeftOnly || flags.RightOnly || flags.Inverted {
		t.Fatalf("unexpected flags %+v", flags)
	}
	d := Compose(metrics, flags, 2, DefaultGain())
	if d.Remap != RemapLeft {
		t.Fatalf("expected remap to channel 0, got %s", d.Remap)
	}
	if got := d.Filters(); !reflect.DeepEqual(got, []string{"pan=stereo|c0=c0|c1=c0"}) {
		t.Fatalf("unexpected filters %v", got)
	}
}

func TestClassifyRightOnlyAndInverted(t *testing.T) {
	flags := Classify(stereo(-30, -15, -18), 2, DefaultThresholds())
	if !flags.RightOnly || flags.LeftOnly || flags.Inverted {
		t.Fatalf("unexpected right only flags %+v", flags)
	}
	d := Compose(stereo(-30, -15, -18), flags, 2, DefaultGain())
	if got := d.Filters(); !reflect.DeepEqual(got, []string{"pan=stereo|c0=c1|c1=c1"}) {
		t.Fatalf("unexpected filters %v", got)
	}

	flags = Classify(stereo(-15, -16, -40), 2, DefaultThresholds())
	if !flags.Inverted || flags.LeftOnly || flags.RightOnly {
		t.Fatalf("unexpected inverted flags %+v", flags)
	}
	if d := Compose(stereo(-15, -16, -40), flags, 2, DefaultGain()); d.Remap != RemapLeft {
		t.Fatalf("expected inverted track remapped to channel 0")
	}
}

func TestStereoFlagsAreExclusive(t *testing.T) {
	levels := []float64{-60, -40, -30, -25, -20, -15, -10, -5, 0}
	for _, ch0 := range levels {
		for _, ch1 := range levels {
			for _, merged := range levels {
				f := Classify(stereo(ch0, ch1, merged), 2, DefaultThresholds())
				set := 0
				for _, b := range []bool{f.LeftOnly, f.RightOnly, f.Inverted} {
					if b {
						set++
					}
				}
				if set > 1 {
					t.Fatalf("ch0=%v ch1=%v merged=%v produced %+v", ch0, ch1, merged, f)
				}
			}
		}
	}
}

func TestNonStereoFlags(t *testing.T) {
	metrics := Metrics{
		Volume:   map[Variant]Volume{Original: {MeanDB: -35, MaxDB: 0}, Channel(0): {MeanDB: -35, MaxDB: 0}},
		Loudness: map[Variant]Loudness{Original: {IntegratedLUFS: -14}, Channel(0): {IntegratedLUFS: -14}},
	}
	flags := Classify(metrics, 1, DefaultThresholds())
	want := Flags{TooLoud: true, TooQuiet: true}
	if flags != want {
		t.Fatalf("flags = %+v, want %+v", flags, want)
	}
	if d := Compose(metrics, flags, 1, DefaultGain()); d.Remap != RemapLeft || d.GainDB != nil {
		t.Fatalf("unexpected mono directive %+v", d)
	}
}

func TestGainBoundaries(t *testing.T) {
	tests := []struct {
		name string
		lufs float64
		peak float64
		want *float64
	}{
		{name: "at upper bound", lufs: -12, peak: -1, want: nil},
		{name: "just above upper bound", lufs: -11.99, peak: -1, want: ptr(-2.01)},
		{name: "just below upper bound", lufs: -12.01, peak: -1, want: nil},
		{name: "at lower bound", lufs: -16, peak: -1, want: nil},
		{name: "boost limited by peak", lufs: -16.01, peak: -1, want: ptr(1)},
		{name: "boost to target", lufs: -16.01, peak: -6, want: ptr(2.01)},
		{name: "loud track", lufs: -8, peak: 0, want: ptr(-6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := stereo(-15, -15, -15)
			metrics.Loudness[Original] = Loudness{IntegratedLUFS: tt.lufs}
			metrics.Volume[Original] = Volume{MeanDB: -15, MaxDB: tt.peak}
			d := Compose(metrics, Flags{}, 2, DefaultGain())
			if d.Remap != RemapNone {
				t.Fatalf("expected no remap, got %s", d.Remap)
			}
			switch {
			case tt.want == nil && d.GainDB != nil:
				t.Fatalf("expected no gain, got %v", *d.GainDB)
			case tt.want != nil && (d.GainDB == nil || *d.GainDB != *tt.want):
				t.Fatalf("expected gain %v, got %v", *tt.want, d.GainDB)
			}
		})
	}
}

func TestDirectiveFiltersOrder(t *testing.T) {
	d := Directive{Remap: RemapRight, GainDB: ptr(-2.5)}
	if got := d.Filters(); !reflect.DeepEqual(got, []string{"pan=stereo|c0=c1|c1=c1", "volume=-2.5dB"}) {
		t.Fatalf("unexpected filters %v", got)
	}
	if got := (Directive{}).Filters(); len(got) != 0 {
		t.Fatalf("expected no filters, got %v", got)
	}
}

func TestVariantJSONKeys(t *testing.T) {
	data, err := json.Marshal(map[Variant]Volume{Original: {}, Channel(1): {}, Merged: {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"original"`, `"channel_1"`, `"merged"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected key %s in %s", key, data)
		}
	}
	var decoded map[Variant]Volume
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded[Channel(1)]; !ok {
		t.Fatalf("expected channel_1 to decode")
	}
	if _, err := ParseVariant("channel_x"); err == nil {
		t.Fatalf("expected error for bad variant")
	}
}

func ptr(v float64) *float64 { return &v }
