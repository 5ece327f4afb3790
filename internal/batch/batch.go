package batch

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"auprobe/internal/logging"
	"auprobe/internal/services"
	"auprobe/internal/session"
)

// Options configures Run.
type Options struct {
	Concurrency     int
	StartsPerSecond float64
	// Analyze runs the loudness pass; otherwise sessions only select.
	Analyze bool
	Session session.Options
}

// Outcome is the result of one source. Exactly one of Result and Err is set.
type Outcome struct {
	Source string
	Result *session.Result
	Err    error
}

// Retryable reports whether the failure came from a single probe or analysis
// run rather than from the source itself.
func (o Outcome) Retryable() bool {
	return o.Err != nil && !services.IsFatal(o.Err)
}

// Run processes every source in its own session and calls emit once per
// source in completion order. emit is never called concurrently. Per-source
// failures are reported through emit; Run itself only fails when ctx ends.
func Run(ctx context.Context, sources []string, opts Options, logger *slog.Logger, emit func(Outcome)) error {
	logger = logging.NewComponentLogger(logger, "batch")
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}
	limit := rate.Inf
	if opts.StartsPerSecond > 0 {
		limit = rate.Limit(opts.StartsPerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	jobs := make(chan string)
	var emitMu sync.Mutex
	deliver := func(o Outcome) {
		emitMu.Lock()
		defer emitMu.Unlock()
		if emit != nil {
			emit(o)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					deliver(Outcome{Source: src, Err: err})
					continue
				}
				deliver(runOne(ctx, src, opts, logger))
			}
		}()
	}

feed:
	for _, src := range sources {
		select {
		case jobs <- src:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("batch complete", logging.Int("sources", len(sources)), logging.Int("workers", workers))
	return nil
}

func runOne(ctx context.Context, raw string, opts Options, logger *slog.Logger) Outcome {
	s, err := session.New(raw, opts.Session, logger)
	if err != nil {
		return failed(raw, err, logger)
	}
	var result session.Result
	if opts.Analyze {
		result, err = s.Analyze(ctx)
	} else {
		result, err = s.Select(ctx)
	}
	if err != nil {
		return failed(raw, err, logger)
	}
	return Outcome{Source: raw, Result: &result}
}

func failed(raw string, err error, logger *slog.Logger) Outcome {
	o := Outcome{Source: raw, Err: err}
	switch {
	case errors.Is(err, context.Canceled):
	case o.Retryable():
		logging.WarnWithContext(logger, "source failed transiently", "source_retryable",
			logging.String(logging.FieldSource, raw),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun the source later or raise probe.timeout_seconds"),
			logging.String(logging.FieldImpact, "source skipped for this batch"),
		)
	default:
		logger.Error("source failed",
			logging.String(logging.FieldSource, raw),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "probe the source on its own with --log-level debug"),
			logging.String(logging.FieldImpact, "source skipped"),
		)
	}
	return o
}

// ReadSources returns the non-blank lines of r that do not start with '#'.
func ReadSources(r io.Reader) ([]string, error) {
	var sources []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}
