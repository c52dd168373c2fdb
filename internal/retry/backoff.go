package retry

import (
	"math"
	"math/rand"
	"time"
)

// ScheduleBackoff waits for fixed, pre-computed durations: the first retry
// waits schedule[0], the second schedule[1], and so on. The number of retries
// equals the schedule length.
type ScheduleBackoff struct {
	schedule []time.Duration
}

// NewScheduleBackoff creates a backoff that consumes schedule front to back.
// The slice is copied.
//
// Example:
//
//	backoff := retry.NewScheduleBackoff(30*time.Second, 60*time.Second, 90*time.Second)
func NewScheduleBackoff(schedule ...time.Duration) *ScheduleBackoff {
	s := make([]time.Duration, len(schedule))
	copy(s, schedule)
	return &ScheduleBackoff{schedule: s}
}

// NextDelay returns the scheduled wait for the given zero-indexed retry.
// Attempts past the end of the schedule reuse the last entry.
func (b *ScheduleBackoff) NextDelay(attempt int) time.Duration {
	if len(b.schedule) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(b.schedule) {
		attempt = len(b.schedule) - 1
	}
	return b.schedule[attempt]
}

// MaxAttempts returns the number of retries, i.e. the schedule length.
func (b *ScheduleBackoff) MaxAttempts() int {
	return len(b.schedule)
}

// Schedule returns a copy of the configured waits.
func (b *ScheduleBackoff) Schedule() []time.Duration {
	s := make([]time.Duration, len(b.schedule))
	copy(s, b.schedule)
	return s
}

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	// initialDelay is the delay for the first retry attempt
	initialDelay time.Duration

	// maxDelay is the maximum delay between attempts
	maxDelay time.Duration

	// multiplier is the factor by which delay increases (typically 2.0)
	multiplier float64

	// maxAttempts is the maximum number of retry attempts (0 = no retries)
	maxAttempts int

	// jitter adds randomness to spread retries from concurrent callers (0.0-1.0).
	// Jitter of 0.1 means +/- 10% randomness
	jitter float64

	// jitterFunc provides random values [0, 1) for jitter calculation
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the initial delay for the first retry attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between retry attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0) to add randomness to delays.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom function for generating random jitter values.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates an exponential backoff strategy. The defaults
// start at 30s and cap at 90s, matching the span of the fixed schedule.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(10*time.Second),
//	    retry.WithMaxDelay(2*time.Minute),
//	    retry.WithJitter(0.2),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 30 * time.Second,
		maxDelay:     90 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NextDelay calculates the delay for the given attempt using exponential backoff.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	// initialDelay * (multiplier ^ attempt)
	delayMs := float64(b.initialDelay.Milliseconds()) * math.Pow(b.multiplier, float64(attempt))

	if delayMs > float64(b.maxDelay.Milliseconds()) {
		delayMs = float64(b.maxDelay.Milliseconds())
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}

		// delay * (1 +/- jitter * random); [0,1) is mapped to [-1,1)
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delayMs *= 1.0 + (b.jitter * randomOffset)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// MaxAttempts returns the maximum number of retry attempts.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// InitialDelay returns the initial delay for tests and debugging.
func (b *ExponentialBackoff) InitialDelay() time.Duration {
	return b.initialDelay
}

// MaxDelay returns the maximum delay for tests and debugging.
func (b *ExponentialBackoff) MaxDelay() time.Duration {
	return b.maxDelay
}

// Multiplier returns the backoff multiplier for tests and debugging.
func (b *ExponentialBackoff) Multiplier() float64 {
	return b.multiplier
}

// Jitter returns the jitter factor for tests and debugging.
func (b *ExponentialBackoff) Jitter() float64 {
	return b.jitter
}
