package race

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"auprobe/internal/media/runner"
	"auprobe/internal/services"
	"auprobe/internal/source"
)

const aacProbe = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"aac","bit_rate":"128000","channels":2,"duration":"60"}],"format":{"format_name":"asf"}}`

type outcome struct {
	elapsed time.Duration
	output  string
	err     error
}

// fakeExecutor advances a fake clock by the simulated run time of each call.
type fakeExecutor struct {
	now     time.Time
	respond func(url string, call int, cmd runner.Command) outcome
	calls   map[string]int
	seen    []runner.Command
}

func newFakeExecutor(respond func(url string, call int, cmd runner.Command) outcome) *fakeExecutor {
	return &fakeExecutor{now: time.Unix(1_700_000_000, 0), respond: respond, calls: map[string]int{}}
}

func (f *fakeExecutor) Now() time.Time { return f.now }

func (f *fakeExecutor) Run(_ context.Context, cmd runner.Command) ([]byte, error) {
	url := probedURL(cmd.Args)
	call := f.calls[url]
	f.calls[url]++
	f.seen = append(f.seen, cmd)
	res := f.respond(url, call, cmd)
	f.now = f.now.Add(res.elapsed)
	if res.err != nil {
		return nil, res.err
	}
	return []byte(res.output), nil
}

func probedURL(args []string) string {
	if len(args) < 2 || args[len(args)-2] != "--" {
		return ""
	}
	return args[len(args)-1]
}

func timeoutAfter(cmd runner.Command) outcome {
	return outcome{elapsed: cmd.Timeout, err: &runner.Failure{Kind: runner.FailureTimeout, Args: cmd.Args}}
}

func newTestSelector(exec *fakeExecutor, opts Options) *Selector {
	return NewSelector(exec, opts, nil).WithClock(exec.Now)
}

func defaultOptions() Options {
	return Options{RepeatTimes: 3, RetryTimes: 3, Timeout: 10 * time.Second, TimeoutGrowth: 0.5, FailurePenalty: 100 * time.Second}
}

func TestSelectPrefersReachableFastProtocol(t *testing.T) {
	exec := newFakeExecutor(func(url string, _ int, cmd runner.Command) outcome {
		if strings.HasPrefix(url, "http://") {
			return outcome{elapsed: 200 * time.Millisecond, output: aacProbe}
		}
		return timeoutAfter(cmd)
	})
	src, err := source.Parse("http://radio.example/stream", nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	sel, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if sel.Protocol != source.ProtocolHTTP || sel.URL != "http://radio.example/stream" {
		t.Fatalf("expected http to win, got %s %s", sel.Protocol, sel.URL)
	}
	if sel.AverageResponse != 200*time.Millisecond {
		t.Fatalf("unexpected average response %s", sel.AverageResponse)
	}
	if len(sel.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(sel.Candidates))
	}
	mmsh := sel.Candidates[1]
	if mmsh.Reachable() || mmsh.AverageResponse != 100*time.Second {
		t.Fatalf("expected unreachable mmsh charged the penalty, got %+v", mmsh)
	}
	if track := sel.Tracks[0]; track.Codec != "aac" || track.BitRate != 128000 {
		t.Fatalf("unexpected track %+v", track)
	}
	if exec.calls["http://radio.example/stream"] != 3 || exec.calls["mmsh://radio.example/stream"] != 9 {
		t.Fatalf("unexpected call counts: %v", exec.calls)
	}
}

func TestAttemptTimeoutsGrow(t *testing.T) {
	exec := newFakeExecutor(func(_ string, _ int, cmd runner.Command) outcome { return timeoutAfter(cmd) })
	opts := defaultOptions()
	opts.RepeatTimes = 1
	src := source.Source{Raw: "rtmp://h/app", Scheme: "rtmp", Remainder: "h/app"}

	_, err := newTestSelector(exec, opts).Select(context.Background(), src)
	if !errors.Is(err, services.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
	want := []time.Duration{10 * time.Second, 15 * time.Second, 20 * time.Second}
	if len(exec.seen) != len(want) {
		t.Fatalf("expected %d attempts, got %d", len(want), len(exec.seen))
	}
	for i, cmd := range exec.seen {
		if cmd.Timeout != want[i] {
			t.Fatalf("attempt %d timeout = %s, want %s", i, cmd.Timeout, want[i])
		}
	}
	if !strings.Contains(err.Error(), "unreachable source") {
		t.Fatalf("unexpected error message %q", err)
	}
}

func TestFailedRepetitionCostsMoreThanSlowSuccess(t *testing.T) {
	exec := newFakeExecutor(func(url string, call int, cmd runner.Command) outcome {
		if strings.HasPrefix(url, "http://") && call == 5 {
			return outcome{elapsed: time.Second, output: aacProbe}
		}
		return timeoutAfter(cmd)
	})
	opts := defaultOptions()
	opts.RepeatTimes = 2
	opts.Timeout = 40 * time.Second
	src, err := source.Parse("http://radio.example/stream", nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	sel, err := newTestSelector(exec, opts).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	timings := sel.Candidates[0].Timings
	if len(timings) != 2 {
		t.Fatalf("expected two repetitions, got %v", timings)
	}
	if timings[1] != 101*time.Second {
		t.Fatalf("slow success timing = %s, want 1m41s", timings[1])
	}
	if timings[0] != 220*time.Second {
		t.Fatalf("failed repetition timing = %s, want raised penalty 3m40s", timings[0])
	}
}

func TestSelectorDefaultsZeroTimeout(t *testing.T) {
	s := NewSelector(newFakeExecutor(nil), Options{RetryTimes: 3, TimeoutGrowth: 0.5}, nil)
	if got := s.AttemptTimeout(0); got != DefaultTimeout {
		t.Fatalf("first attempt timeout = %s, want %s", got, DefaultTimeout)
	}
	if got := s.AttemptTimeout(2); got != 2*DefaultTimeout {
		t.Fatalf("third attempt timeout = %s, want %s", got, 2*DefaultTimeout)
	}
}

func TestRepetitionTimingIncludesFailedAttempts(t *testing.T) {
	exec := newFakeExecutor(func(_ string, call int, cmd runner.Command) outcome {
		if call%2 == 0 {
			return outcome{elapsed: time.Second, err: &runner.Failure{Kind: runner.FailureExit, Args: cmd.Args}}
		}
		return outcome{elapsed: 500 * time.Millisecond, output: aacProbe}
	})
	opts := defaultOptions()
	opts.RepeatTimes = 2
	src := source.Source{Raw: "rtmp://h/app", Scheme: "rtmp", Remainder: "h/app"}

	sel, err := newTestSelector(exec, opts).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	for i, timing := range sel.Timings {
		if timing != 1500*time.Millisecond {
			t.Fatalf("repetition %d timing = %s, want 1.5s", i, timing)
		}
	}
	if sel.URL != "rtmp://h/app live=1" {
		t.Fatalf("unexpected rtmp url %q", sel.URL)
	}
}

func TestMalformedOutputExcludesCandidate(t *testing.T) {
	exec := newFakeExecutor(func(url string, _ int, _ runner.Command) outcome {
		if strings.HasPrefix(url, "rtsp://") {
			return outcome{elapsed: 100 * time.Millisecond, output: "Server returned 404 Not Found"}
		}
		return outcome{elapsed: 2 * time.Second, output: aacProbe}
	})
	src := source.Source{Raw: "mms://h/s", Scheme: "mms", Remainder: "h/s"}

	sel, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if sel.Protocol != source.ProtocolMMSH {
		t.Fatalf("expected mmsh to win over malformed rtsp, got %s", sel.Protocol)
	}
	if sel.Candidates[0].Reachable() {
		t.Fatalf("expected rtsp track map to be absent")
	}
	first := exec.seen[0]
	if strings.Join(first.Args, " ") != "ffprobe -v error -hide_banner -show_entries format:stream -print_format json -rtsp_transport tcp -- rtsp://h/s" {
		t.Fatalf("unexpected rtsp command %q", first.String())
	}
}

func TestEmptyTrackSetIsReachable(t *testing.T) {
	exec := newFakeExecutor(func(url string, _ int, _ runner.Command) outcome {
		if strings.HasPrefix(url, "http://") {
			return outcome{elapsed: 50 * time.Millisecond, output: `{"streams":[],"format":{}}`}
		}
		return outcome{elapsed: time.Second, output: aacProbe}
	})
	src := source.Source{Raw: "http://h/s", Scheme: "http", Remainder: "h/s"}

	sel, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if sel.Protocol != source.ProtocolHTTP || sel.Tracks == nil || len(sel.Tracks) != 0 {
		t.Fatalf("expected empty but present http catalog to win, got %s %v", sel.Protocol, sel.Tracks)
	}
}

func TestSelectIsDeterministicOnTies(t *testing.T) {
	for i := 0; i < 10; i++ {
		exec := newFakeExecutor(func(string, int, runner.Command) outcome {
			return outcome{elapsed: time.Second, output: aacProbe}
		})
		src := source.Source{Raw: "rtsp://h/s", Scheme: "rtsp", Remainder: "h/s"}
		sel, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
		if err != nil {
			t.Fatalf("Select returned error: %v", err)
		}
		if sel.Protocol != source.ProtocolRTSP {
			t.Fatalf("expected first candidate on tie, got %s", sel.Protocol)
		}
	}
}

func TestLocalSourceSingleAttempt(t *testing.T) {
	exec := newFakeExecutor(func(string, int, runner.Command) outcome {
		return outcome{elapsed: 10 * time.Millisecond, output: aacProbe}
	})
	src := source.Source{Raw: "/media/clip.mp3", Scheme: source.ProtocolFile, Local: true}

	sel, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(exec.seen) != 1 || len(sel.Candidates) != 1 || sel.Protocol != source.ProtocolFile {
		t.Fatalf("expected a single file attempt, got %d calls and %d candidates", len(exec.seen), len(sel.Candidates))
	}
	if sel.URL != "/media/clip.mp3" {
		t.Fatalf("unexpected local url %q", sel.URL)
	}
}

func TestUnsupportedScheme(t *testing.T) {
	exec := newFakeExecutor(func(string, int, runner.Command) outcome { return outcome{} })
	src := source.Source{Raw: "gopher://h/s", Scheme: "gopher", Remainder: "h/s"}
	_, err := newTestSelector(exec, defaultOptions()).Select(context.Background(), src)
	if !errors.Is(err, services.ErrInvalidSource) || len(exec.seen) != 0 {
		t.Fatalf("expected ErrInvalidSource without probing, got %v after %d calls", err, len(exec.seen))
	}
}

func TestForceProtoSkipsRace(t *testing.T) {
	exec := newFakeExecutor(func(string, int, runner.Command) outcome {
		return outcome{elapsed: time.Second, output: aacProbe}
	})
	opts := defaultOptions()
	opts.ForceProto = true
	src := source.Source{Raw: "mmsh://h/s", Scheme: "mmsh", Remainder: "h/s"}
	sel, err := newTestSelector(exec, opts).Select(context.Background(), src)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(sel.Candidates) != 1 || sel.Protocol != source.ProtocolMMSH {
		t.Fatalf("expected only mmsh, got %+v", sel.Candidates)
	}
}

func TestSelectStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := newFakeExecutor(func(string, int, runner.Command) outcome {
		cancel()
		return outcome{err: context.Canceled}
	})
	src := source.Source{Raw: "http://h/s", Scheme: "http", Remainder: "h/s"}
	_, err := newTestSelector(exec, defaultOptions()).Select(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(exec.seen) != 1 {
		t.Fatalf("expected probing to stop after cancel, got %d calls", len(exec.seen))
	}
}
