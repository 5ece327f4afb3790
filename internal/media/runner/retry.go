package runner

import "time"

// RetryTimeout returns the timeout of the zero-based attempt when each retry
// extends the base timeout by growth times the base.
func RetryTimeout(base time.Duration, growth float64, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if growth < 0 {
		growth = 0
	}
	return time.Duration(float64(base) * (1 + float64(attempt)*growth))
}

// RetryBudget returns the longest time attempts retries of a command can
// take while still ending in success: every attempt but the last times out
// and the last finishes just under its own timeout.
func RetryBudget(base time.Duration, growth float64, attempts int) time.Duration {
	var total time.Duration
	for k := 0; k < attempts; k++ {
		total += RetryTimeout(base, growth, k)
	}
	return total
}
