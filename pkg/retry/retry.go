package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Retryable decides whether an error is worth another attempt. Nil uses
	// IsTransient.
	Retryable func(error) bool
}

// DefaultConfig returns conservative defaults for backoff retries.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// withDefaults fills the zero fields of c from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = max(d.MaxDelay, c.BaseDelay)
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.Retryable == nil {
		c.Retryable = IsTransient
	}
	return c
}

// ExponentialBackoff retries with exponential delay between attempts.
type ExponentialBackoff struct {
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewExponentialBackoff copies config; nil means DefaultConfig.
func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExponentialBackoff{config: config.withDefaults(), sleep: sleepContext}
}

// Do calls fn until it succeeds. It stops early on a non-retryable error or
// when ctx is done, and otherwise returns a MaxRetriesExceededError.
func (eb *ExponentialBackoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= eb.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		switch {
		case lastErr == nil:
			return nil
		case !eb.config.Retryable(lastErr):
			return lastErr
		case attempt == eb.config.MaxAttempts:
			// last attempt: fall through to the exhausted error
		default:
			if err := eb.sleep(ctx, eb.calculateDelay(attempt)); err != nil {
				return err
			}
		}
	}

	return &MaxRetriesExceededError{LastError: lastErr, MaxAttempts: eb.config.MaxAttempts}
}

// calculateDelay is BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (eb *ExponentialBackoff) calculateDelay(attempt int) time.Duration {
	delay := eb.config.BaseDelay
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(delay) * eb.config.Multiplier)
		if next >= eb.config.MaxDelay || next < delay {
			return eb.config.MaxDelay
		}
		delay = next
	}
	return min(delay, eb.config.MaxDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transientMessages are lowercase fragments drivers put in errors that do not
// carry a typed cause.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"the database system is starting up",
}

// IsTransient reports whether err looks like a connectivity blip: a network
// timeout, a refused or reset connection, or a driver message saying so.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// MaxRetriesExceededError wraps the last failure once every attempt is spent.
type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.MaxAttempts, e.LastError)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

// IsMaxRetriesExceeded reports whether err is a MaxRetriesExceededError.
func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
