// Package circuitbreaker wraps github.com/sony/gobreaker for the best-effort external services.
// An open breaker fails fast; callers treat that like any transport failure and degrade.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/sony/gobreaker"
)

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker open")

// Config holds the configuration for a circuit breaker.
type Config struct {
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Interval clears closed-state counts; Timeout is how long the breaker stays open.
	Interval time.Duration
	Timeout  time.Duration

	// FailureThreshold is the failure ratio that trips the breaker once MinRequests were seen.
	FailureThreshold float64
	MinRequests      uint32
}

// SummarizerConfig returns settings for the summarization endpoint.
func SummarizerConfig() Config {
	return Config{
		Name:             "summarizer",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// TranslatorConfig returns settings for the translation endpoint.
func TranslatorConfig() Config {
	return Config{
		Name:             "translator",
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker. State changes are logged through log.
func New(cfg Config, log logger.Logger) *CircuitBreaker {
	log = logger.Ensure(log)
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WarnObj("circuit breaker state changed", "circuit_breaker", map[string]any{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Do runs fn through the breaker. Rejections are reported as ErrOpen.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	out, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrOpen
		}
		return zero, err
	}
	return out.(T), nil
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// IsOpen reports whether the breaker currently rejects calls.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
