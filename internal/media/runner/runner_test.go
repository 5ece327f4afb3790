package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"auprobe/internal/services"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "stub")
	script := []byte("#!/bin/sh\n" + body + "\n")
	if err := os.WriteFile(path, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCLIRunReturnsStdout(t *testing.T) {
	stub := writeStub(t, `echo '{"streams":[]}'; echo noise >&2`)
	out, err := CLI{}.Run(context.Background(), Command{Args: []string{stub, "-x"}, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.TrimSpace(string(out)) != `{"streams":[]}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLIRunReturnsStderrWhenRequested(t *testing.T) {
	stub := writeStub(t, `echo ignored; echo "[Parsed_volumedetect_1 @ 0x1] mean_volume: -20.0 dB" >&2`)
	out, err := CLI{}.Run(context.Background(), Command{Args: []string{stub}, Stderr: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(string(out), "mean_volume") || strings.Contains(string(out), "ignored") {
		t.Fatalf("unexpected stderr output %q", out)
	}
}

func TestCLIRunTimeout(t *testing.T) {
	stub := writeStub(t, `sleep 10`)
	start := time.Now()
	_, err := CLI{}.Run(context.Background(), Command{Args: []string{stub}, Timeout: 100 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, ErrExit) {
		t.Fatalf("timeout must not match ErrExit")
	}
	if !errors.Is(err, services.ErrProbeFailure) {
		t.Fatalf("expected failure to match ErrProbeFailure")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

func TestCLIRunExitFailure(t *testing.T) {
	stub := writeStub(t, `echo "first" >&2; echo "Connection refused" >&2; exit 3`)
	_, err := CLI{}.Run(context.Background(), Command{Args: []string{stub, "rtsp://host/a"}})
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %T %v", err, err)
	}
	if failure.Kind != FailureExit || !errors.Is(err, ErrExit) {
		t.Fatalf("unexpected failure kind %q", failure.Kind)
	}
	if len(failure.Args) != 2 || failure.Args[1] != "rtsp://host/a" {
		t.Fatalf("expected args to be recorded, got %v", failure.Args)
	}
	if !strings.HasSuffix(err.Error(), "Connection refused") {
		t.Fatalf("expected last stderr line in message, got %q", err.Error())
	}
}

func TestCLIRunMissingBinary(t *testing.T) {
	_, err := CLI{}.Run(context.Background(), Command{Args: []string{"clearly-not-present-binary"}})
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	_, err = CLI{}.Run(context.Background(), Command{})
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit for empty command, got %v", err)
	}
}

func TestCLIRunParentCancel(t *testing.T) {
	stub := writeStub(t, `sleep 10`)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := CLI{}.Run(ctx, Command{Args: []string{stub}, Timeout: 5 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var failure *Failure
	if errors.As(err, &failure) {
		t.Fatalf("cancellation must not be reported as a Failure")
	}
}
