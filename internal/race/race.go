package race

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"auprobe/internal/logging"
	"auprobe/internal/media/audio"
	"auprobe/internal/media/ffprobe"
	"auprobe/internal/media/runner"
	"auprobe/internal/services"
	"auprobe/internal/source"
)

const (
	// DefaultFailurePenalty is charged for a repetition whose attempts all failed.
	DefaultFailurePenalty = 100 * time.Second
	// DefaultTimeoutGrowth scales the timeout of each retry attempt.
	DefaultTimeoutGrowth = 0.5
	// DefaultTimeout bounds the first attempt of each repetition.
	DefaultTimeout = 10 * time.Second
)

// Options tunes a Selector.
type Options struct {
	FFprobeBinary  string
	InputOptions   []string
	RepeatTimes    int
	RetryTimes     int
	Timeout        time.Duration
	TimeoutGrowth  float64
	FailurePenalty time.Duration
	ForceProto     bool
}

// Candidate records the outcome of probing one protocol.
type Candidate struct {
	Protocol        string
	URL             string
	InputOptions    []string
	AverageResponse time.Duration
	Timings         []time.Duration
	// Tracks is nil when no repetition produced decodable output. An empty
	// map is a reachable source without audio.
	Tracks map[int]audio.Track
}

// Reachable reports whether the candidate produced a track catalog.
func (c Candidate) Reachable() bool {
	return c.Tracks != nil
}

// Selection is the winning candidate plus every candidate that was probed,
// in race order.
type Selection struct {
	Candidate
	Candidates []Candidate
}

// Selector races protocol candidates.
type Selector struct {
	exec   runner.Executor
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewSelector builds a Selector. A nil executor uses runner.CLI.
func NewSelector(exec runner.Executor, opts Options, logger *slog.Logger) *Selector {
	if exec == nil {
		exec = runner.CLI{}
	}
	if opts.RepeatTimes < 1 {
		opts.RepeatTimes = 1
	}
	if opts.RetryTimes < 1 {
		opts.RetryTimes = 1
	}
	if opts.TimeoutGrowth < 0 {
		opts.TimeoutGrowth = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.FailurePenalty <= 0 {
		opts.FailurePenalty = DefaultFailurePenalty
	}
	// A failed repetition must always cost more than the slowest success.
	if budget := runner.RetryBudget(opts.Timeout, opts.TimeoutGrowth, opts.RetryTimes); opts.FailurePenalty <= budget {
		opts.FailurePenalty = budget + opts.Timeout
	}
	return &Selector{
		exec:   exec,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "race"),
		now:    time.Now,
	}
}

// WithClock replaces the clock used to time repetitions.
func (s *Selector) WithClock(now func() time.Time) *Selector {
	if now != nil {
		s.now = now
	}
	return s
}

// AttemptTimeout returns the timeout of the zero-based attempt.
func (s *Selector) AttemptTimeout(attempt int) time.Duration {
	return runner.RetryTimeout(s.opts.Timeout, s.opts.TimeoutGrowth, attempt)
}

// Select probes each protocol candidate of src in order and returns the
// reachable one with the lowest average response time.
func (s *Selector) Select(ctx context.Context, src source.Source) (Selection, error) {
	logger := logging.WithContext(ctx, s.logger)
	protocols := src.Protocols(s.opts.ForceProto)
	if len(protocols) == 0 {
		logging.WarnWithContext(logger, "unsupported source scheme", "unsupported_scheme",
			logging.String("scheme", src.Scheme),
			logging.String(logging.FieldErrorHint, "use file, http, rtmp, rtsp or mms sources"),
			logging.String(logging.FieldImpact, "source cannot be probed"),
		)
		return Selection{}, services.Wrap(services.ErrInvalidSource, "select protocol", fmt.Sprintf("unsupported scheme %q", src.Scheme), nil)
	}

	repeat, retry := s.opts.RepeatTimes, s.opts.RetryTimes
	if src.Local {
		repeat, retry = 1, 1
	}

	candidates := make([]Candidate, 0, len(protocols))
	for _, protocol := range protocols {
		candidate, err := s.probeCandidate(services.WithProtocol(ctx, protocol), src, protocol, repeat, retry)
		if err != nil {
			return Selection{}, err
		}
		candidates = append(candidates, candidate)
	}

	winner := -1
	for i, candidate := range candidates {
		if !candidate.Reachable() {
			continue
		}
		if winner < 0 || candidate.AverageResponse < candidates[winner].AverageResponse {
			winner = i
		}
	}
	if winner < 0 {
		logging.WarnWithContext(logger, "no protocol candidate reachable", "source_unreachable",
			logging.Strings("protocols", protocols),
			logging.String(logging.FieldErrorHint, "check the source URL and network access"),
			logging.String(logging.FieldImpact, "session aborted"),
		)
		return Selection{}, services.Wrap(services.ErrInvalidSource, "select protocol",
			fmt.Sprintf("unreachable source: tried %s", strings.Join(protocols, ", ")), nil)
	}

	chosen := candidates[winner]
	logger.Info("protocol selected",
		logging.Args(append(logging.DecisionAttrs("protocol", chosen.Protocol, "lowest average response"),
			logging.Duration("average_response", chosen.AverageResponse),
			logging.Int("tracks", len(chosen.Tracks)),
			logging.Int("candidates", len(candidates)),
		)...)...,
	)
	return Selection{Candidate: chosen, Candidates: candidates}, nil
}

func (s *Selector) probeCandidate(ctx context.Context, src source.Source, protocol string, repeat, retry int) (Candidate, error) {
	logger := logging.WithContext(ctx, s.logger)
	endpoint := src.Endpoint(protocol, s.opts.InputOptions)
	candidate := Candidate{
		Protocol:     endpoint.Protocol,
		URL:          endpoint.URL,
		InputOptions: endpoint.InputOptions,
		Timings:      make([]time.Duration, 0, repeat),
	}
	args := ffprobe.Args(s.opts.FFprobeBinary, endpoint.URL, endpoint.InputOptions)

	var lastOutput []byte
	var total time.Duration
	for rep := 0; rep < repeat; rep++ {
		output, elapsed, err := s.repetition(ctx, endpoint.URL, args, retry)
		if err != nil {
			return Candidate{}, err
		}
		if output == nil {
			elapsed = s.opts.FailurePenalty
		} else {
			lastOutput = output
		}
		candidate.Timings = append(candidate.Timings, elapsed)
		total += elapsed
	}
	candidate.AverageResponse = total / time.Duration(len(candidate.Timings))

	if lastOutput == nil {
		logger.Debug("protocol produced no output",
			logging.Duration("average_response", candidate.AverageResponse),
		)
		return candidate, nil
	}
	result, err := ffprobe.Parse(lastOutput)
	if err != nil {
		wrapped := services.Wrap(services.ErrMalformedProbeOutput, "parse probe output", protocol, err)
		logging.WarnWithContext(logger, "probe output malformed", "probe_output_malformed",
			logging.Error(wrapped),
			logging.String(logging.FieldErrorHint, "run ffprobe manually against the url"),
			logging.String(logging.FieldImpact, "protocol excluded from selection"),
		)
		return candidate, nil
	}
	candidate.Tracks = audio.Catalog(result)
	logger.Debug("protocol probed",
		logging.Duration("average_response", candidate.AverageResponse),
		logging.String("tracks", audio.Describe(candidate.Tracks)),
	)
	return candidate, nil
}

// repetition returns the first non-empty output of up to retry attempts and
// the wall time spent. Output is nil when every attempt failed. Only context
// cancellation is returned as an error.
func (s *Selector) repetition(ctx context.Context, url string, args []string, retry int) ([]byte, time.Duration, error) {
	logger := logging.WithContext(ctx, s.logger)
	start := s.now()
	for attempt := 0; attempt < retry; attempt++ {
		cmd := runner.Command{Args: args, Timeout: s.AttemptTimeout(attempt)}
		output, err := s.exec.Run(ctx, cmd)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, fmt.Errorf("probe %s: %w", url, ctxErr)
		}
		if err == nil && len(bytes.TrimSpace(output)) == 0 {
			err = services.Wrap(services.ErrProbeFailure, "probe", "empty output", nil)
		}
		if err == nil {
			return output, s.now().Sub(start), nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		logger.Debug("probe attempt failed",
			logging.Int("attempt", attempt+1),
			logging.Duration("timeout", cmd.Timeout),
			logging.Error(err),
		)
	}
	return nil, s.now().Sub(start), nil
}
