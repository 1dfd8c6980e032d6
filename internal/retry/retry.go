// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/law-makers/listings/internal/engine"
	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts    int           // Maximum number of attempts, including the first
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	Multiplier     float64       // Backoff multiplier
}

// DefaultConfig returns a sensible default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
	}
}

// Status is the outcome class of a retried unit of work
type Status int

const (
	// Recovered means the unit eventually succeeded
	Recovered Status = iota
	// Skipped means the unit was abandoned: attempts exhausted or the error is not transient
	Skipped
	// Fatal means the error invalidates the whole run
	Fatal
)

func (s Status) String() string {
	switch s {
	case Recovered:
		return "recovered"
	case Skipped:
		return "skipped"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result reports how a unit of work ended
type Result struct {
	Status   Status
	Attempts int
	Err      error
}

// OK reports whether the unit succeeded
func (r Result) OK() bool { return r.Status == Recovered }

// Do executes fn until it succeeds, fails permanently, or attempts run out.
// ctx only bounds the waits between attempts; fn receives it for its own use.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(ctx)

		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempt+1).
					Msg("Retry succeeded")
			}
			return Result{Status: Recovered, Attempts: attempt + 1}
		}

		lastErr = err

		if engine.IsFatal(err) {
			return Result{Status: Fatal, Attempts: attempt + 1, Err: err}
		}

		if !shouldRetry(err) {
			log.Debug().
				Err(err).
				Msg("Error is not retryable")
			return Result{Status: Skipped, Attempts: attempt + 1, Err: err}
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			backoff := calculateBackoff(attempt, cfg)

			log.Debug().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return Result{Status: Skipped, Attempts: attempt + 1, Err: fmt.Errorf("retry interrupted: %w", ctx.Err())}
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return Result{
		Status:   Skipped,
		Attempts: cfg.MaxAttempts,
		Err:      fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr),
	}
}

// calculateBackoff calculates the backoff duration for the given attempt
func calculateBackoff(attempt int, cfg Config) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	// Exponential backoff: initialBackoff * (multiplier ^ attempt)
	backoff := float64(cfg.InitialBackoff) * math.Pow(multiplier, float64(attempt))

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	return time.Duration(backoff)
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation by the caller is never transient
	if errors.Is(err, context.Canceled) {
		return false
	}

	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return engErr.Retry
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if timeoutErr, ok := err.(interface{ Timeout() bool }); ok {
		return timeoutErr.Timeout()
	}

	// Default: retry
	return true
}
