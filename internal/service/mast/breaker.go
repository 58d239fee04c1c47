package mast

import (
	"errors"
	"time"

	"EngDB/pkg/logger"

	"github.com/sony/gobreaker"
)

// Guard wraps a single outbound call. It must not retry.
type Guard interface {
	Do(call func() ([]byte, error)) ([]byte, error)
}

type passthrough struct{}

func (passthrough) Do(call func() ([]byte, error)) ([]byte, error) { return call() }

// BreakerConfig configures the opt-in circuit breaker.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// ErrBreakerOpen is returned without any network call while the breaker is open.
var ErrBreakerOpen = gobreaker.ErrOpenState

// Breaker fails fast after repeated transport failures. It never retries:
// each Do is at most one call.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker builds a Breaker; state changes are logged at warn level.
func NewBreaker(cfg BreakerConfig, l *logger.Logger) *Breaker {
	if l == nil {
		l = logger.NewNop()
	}
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
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("mast circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Do(call func() ([]byte, error)) ([]byte, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// State reports the breaker state as text (closed, half-open, open).
func (b *Breaker) State() string { return b.cb.State().String() }

// IsOpen reports whether err came from an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
