package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"auprobe/internal/logging"
	"auprobe/internal/media/audio"
	"auprobe/internal/media/loudness"
	"auprobe/internal/media/runner"
	"auprobe/internal/race"
	"auprobe/internal/services"
	"auprobe/internal/source"
)

// Session probes one source.
type Session struct {
	id       string
	src      source.Source
	opts     Options
	exec     runner.Executor
	selector *race.Selector
	logger   *slog.Logger

	selected  *race.Selection
	bestIndex int
	bestSet   bool
	report    *Result
}

// New parses raw and prepares a session. A missing local file fails with
// services.ErrInvalidSource.
func New(raw string, opts Options, logger *slog.Logger) (*Session, error) {
	src, err := source.Parse(raw, opts.Stat)
	if err != nil {
		return nil, err
	}
	exec := opts.Executor
	if exec == nil {
		exec = runner.CLI{}
	}
	selector := race.NewSelector(exec, race.Options{
		FFprobeBinary:  opts.FFprobeBinary,
		InputOptions:   opts.InputOptions,
		RepeatTimes:    opts.RepeatTimes,
		RetryTimes:     opts.RetryTimes,
		Timeout:        opts.Timeout,
		TimeoutGrowth:  opts.TimeoutGrowth,
		FailurePenalty: opts.FailurePenalty,
		ForceProto:     opts.ForceProto,
	}, logger).WithClock(opts.Clock)

	return &Session{
		id:       uuid.NewString(),
		src:      src,
		opts:     opts,
		exec:     exec,
		selector: selector,
		logger:   logging.NewComponentLogger(logger, "session"),
	}, nil
}

// ID returns the session identifier stamped on logs and results.
func (s *Session) ID() string { return s.id }

// Source returns the parsed source.
func (s *Session) Source() source.Source { return s.src }

func (s *Session) context(ctx context.Context) context.Context {
	ctx = services.WithSessionID(ctx, s.id)
	return services.WithSource(ctx, s.src.Raw)
}

// Invalidate drops the cached selection, best track, and report.
func (s *Session) Invalidate() {
	s.selected = nil
	s.bestSet = false
	s.bestIndex = 0
	s.report = nil
}

// Selected returns the winning protocol candidate, racing on first use.
func (s *Session) Selected(ctx context.Context) (race.Selection, error) {
	if s.selected != nil {
		return *s.selected, nil
	}
	selection, err := s.selector.Select(s.context(ctx), s.src)
	if err != nil {
		return race.Selection{}, err
	}
	s.selected = &selection
	return selection, nil
}

// BestTrack returns the highest ranked track of the selected protocol.
func (s *Session) BestTrack(ctx context.Context) (audio.Track, error) {
	selection, err := s.Selected(ctx)
	if err != nil {
		return audio.Track{}, err
	}
	if s.bestSet {
		return selection.Tracks[s.bestIndex], nil
	}
	track, err := audio.SelectBest(selection.Tracks)
	if err != nil {
		return audio.Track{}, fmt.Errorf("%s via %s: %w", s.src.Raw, selection.Protocol, err)
	}
	s.bestIndex, s.bestSet = track.Index, true
	logging.WithContext(s.context(ctx), s.logger).Info("track selected",
		logging.Args(append(logging.DecisionAttrs("track", track.Label(), "highest weighted bit rate"),
			logging.String(logging.FieldProtocol, selection.Protocol),
			logging.Int("candidates", len(selection.Tracks)),
		)...)...,
	)
	return track, nil
}

// BestURL returns the raw path for local files, or the selected protocol's URL.
func (s *Session) BestURL(ctx context.Context) (string, error) {
	if s.src.Local {
		return s.src.Raw, nil
	}
	selection, err := s.Selected(ctx)
	if err != nil {
		return "", err
	}
	return selection.URL, nil
}

// Select returns the best track with its protocol, without analysis.
func (s *Session) Select(ctx context.Context) (Result, error) {
	selection, err := s.Selected(ctx)
	if err != nil {
		return Result{}, err
	}
	track, err := s.BestTrack(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Track:               track,
		SessionID:           s.id,
		Source:              s.src.Raw,
		URL:                 selection.URL,
		SelectedProtocol:    selection.Protocol,
		AverageResponseTime: selection.AverageResponse.Seconds(),
		InputOptions:        append([]string{}, selection.InputOptions...),
	}, nil
}

// Analyze runs the full session: selection, best track, and loudness
// analysis. The report is cached until Invalidate.
func (s *Session) Analyze(ctx context.Context) (Result, error) {
	if s.report != nil {
		return *s.report, nil
	}
	result, err := s.Select(ctx)
	if err != nil {
		return Result{}, err
	}
	selection, _ := s.Selected(ctx)
	ctx = services.WithProtocol(s.context(ctx), selection.Protocol)
	logger := logging.WithContext(ctx, s.logger)

	tested := loudness.ClampDuration(result.Duration, s.opts.MinLen, s.opts.MaxLen, s.src.Local)
	plan := loudness.NewPlan(result.Index, result.Channels, tested)
	cmd := runner.Command{
		Args: plan.Args(loudness.Invocation{
			Binary:       s.opts.FFmpegBinary,
			URL:          selection.URL,
			InputOptions: selection.InputOptions,
		}),
		Timeout: s.opts.analysisTimeout(tested),
		Stderr:  true,
	}
	logger.Debug("analysis started",
		logging.Float64("tested_duration", tested),
		logging.Int("branches", len(plan.Variants())),
		logging.Duration("timeout", cmd.Timeout),
	)
	output, err := s.exec.Run(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, err
		}
		return Result{}, services.Wrap(services.ErrProbeFailure, "analyze", s.src.Raw, err)
	}
	metrics, err := loudness.Parse(plan, output)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s.src.Raw, err)
	}

	flags := loudness.Classify(metrics, result.Channels, s.opts.Thresholds)
	directive := loudness.Compose(metrics, flags, result.Channels, s.opts.Gain)

	result.TestedDuration = tested
	result.Volume = metrics.Volume
	result.Loudness = metrics.Loudness
	result.AnomalyFlags = &flags
	result.OutputDirectives = directive.Filters()

	attrs := []logging.Attr{
		logging.String("remap", directive.Remap.String()),
		logging.Strings("output_directives", result.OutputDirectives),
		logging.Bool("left_only", flags.LeftOnly),
		logging.Bool("right_only", flags.RightOnly),
		logging.Bool("inverted", flags.Inverted),
	}
	if flags.TooLoud || flags.TooQuiet {
		logging.WarnWithContext(logger, "track level out of range", "level_anomaly", append(attrs,
			logging.Bool("too_loud", flags.TooLoud),
			logging.Bool("too_quiet", flags.TooQuiet),
			logging.String(logging.FieldErrorHint, "apply the gain directive downstream"),
			logging.String(logging.FieldImpact, "playback level may be uneven"),
		)...)
	} else {
		logger.Info("analysis complete", logging.Args(attrs...)...)
	}

	s.report = &result
	return result, nil
}
