package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"auprobe/internal/services"
)

var (
	// ErrTimeout matches failures where the command exceeded its timeout.
	ErrTimeout = errors.New("command timed out")
	// ErrExit matches failures where the command could not start or exited
	// unsuccessfully.
	ErrExit = errors.New("command failed")
)

// FailureKind classifies a Failure.
type FailureKind string

const (
	FailureTimeout FailureKind = "timeout"
	FailureExit    FailureKind = "exit"
)

// stderrLimit caps the stderr excerpt kept on a Failure.
const stderrLimit = 4096

// waitDelay bounds how long Wait blocks on pipes after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one external invocation. Args[0] is the binary.
type Command struct {
	Args    []string
	Timeout time.Duration
	// Stderr selects stderr as the returned output instead of stdout.
	Stderr bool
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Executor runs a command and returns its captured output.
type Executor interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// Failure describes a command that timed out or did not exit cleanly.
type Failure struct {
	Kind   FailureKind
	Args   []string
	Stderr string
	Err    error
}

func (f *Failure) Error() string {
	name := ""
	if len(f.Args) > 0 {
		name = f.Args[0]
	}
	msg := fmt.Sprintf("%s %s", name, f.Kind)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	if f.Stderr != "" {
		msg += ": " + lastLine(f.Stderr)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches ErrTimeout or ErrExit by kind, and services.ErrProbeFailure for
// every failure.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return f.Kind == FailureTimeout
	case ErrExit:
		return f.Kind == FailureExit
	case services.ErrProbeFailure:
		return true
	default:
		return false
	}
}

var commandContext = exec.CommandContext

// CLI runs commands with os/exec.
type CLI struct{}

// Run executes cmd. Cancellation of ctx is returned as the context error,
// not as a Failure.
func (CLI) Run(ctx context.Context, cmd Command) ([]byte, error) {
	if len(cmd.Args) == 0 || strings.TrimSpace(cmd.Args[0]) == "" {
		return nil, &Failure{Kind: FailureExit, Args: cmd.Args, Err: errors.New("empty command")}
	}
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := commandContext(runCtx, cmd.Args[0], cmd.Args[1:]...) //nolint:gosec
	configureProcessGroup(proc)
	proc.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("run %s: %w", cmd.Args[0], ctxErr)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &Failure{
			Kind:   FailureTimeout,
			Args:   cmd.Args,
			Stderr: excerpt(stderr.String()),
			Err:    fmt.Errorf("after %s", cmd.Timeout),
		}
	}
	if err != nil {
		return nil, &Failure{Kind: FailureExit, Args: cmd.Args, Stderr: excerpt(stderr.String()), Err: err}
	}
	if cmd.Stderr {
		return stderr.Bytes(), nil
	}
	return stdout.Bytes(), nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		s = s[len(s)-stderrLimit:]
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
