package runner

import (
	"testing"
	"time"
)

func TestRetryTimeout(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		growth  float64
		attempt int
		want    time.Duration
	}{
		{name: "first attempt", base: 10 * time.Second, growth: 0.5, attempt: 0, want: 10 * time.Second},
		{name: "third attempt", base: 10 * time.Second, growth: 0.5, attempt: 2, want: 20 * time.Second},
		{name: "no growth", base: 4 * time.Second, growth: 0, attempt: 5, want: 4 * time.Second},
		{name: "negative growth clamps", base: 4 * time.Second, growth: -1, attempt: 3, want: 4 * time.Second},
		{name: "zero base", base: 0, growth: 0.5, attempt: 1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryTimeout(tt.base, tt.growth, tt.attempt); got != tt.want {
				t.Fatalf("RetryTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryBudgetSumsAttemptTimeouts(t *testing.T) {
	if got := RetryBudget(10*time.Second, 0.5, 3); got != 45*time.Second {
		t.Fatalf("expected 45s, got %v", got)
	}
	if got := RetryBudget(40*time.Second, 0.5, 3); got != 180*time.Second {
		t.Fatalf("expected 180s, got %v", got)
	}
	if got := RetryBudget(10*time.Second, 0.5, 0); got != 0 {
		t.Fatalf("expected zero budget without attempts, got %v", got)
	}
}
