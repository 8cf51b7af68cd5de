// Package resilience wraps persistence calls in a bounded retry loop around a
// circuit breaker. It is applied once at the service/repository boundary.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Settings configures a Guard.
type Settings struct {
	Name string

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// The breaker opens once MinRequests calls were seen in the current
	// interval and the share of failures reaches FailureRatio.
	FailureRatio float64
	MinRequests  uint32
	OpenTimeout  time.Duration

	// IsPermanent marks errors that are expected outcomes: they are returned
	// as is, never retried and never counted as breaker failures.
	IsPermanent func(error) bool
}

// Guard runs operations under the retry and circuit breaker policy.
type Guard struct {
	name        string
	maxRetries  uint64
	initial     time.Duration
	maxInterval time.Duration
	isPermanent func(error) bool
	breaker     *gobreaker.CircuitBreaker
}

// New creates a Guard.
func New(s Settings) *Guard {
	g := &Guard{
		name:        s.Name,
		maxRetries:  s.MaxRetries,
		initial:     s.InitialInterval,
		maxInterval: s.MaxInterval,
		isPermanent: s.IsPermanent,
	}
	if g.initial <= 0 {
		g.initial = backoff.DefaultInitialInterval
	}
	if g.maxInterval <= 0 {
		g.maxInterval = backoff.DefaultMaxInterval
	}

	ratio := s.FailureRatio
	minRequests := s.MinRequests
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || g.permanent(err)
		},
	})
	return g
}

// State reports the current breaker state.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// Execute runs fn, retrying transient failures.
func (g *Guard) Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		_, err := g.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}
		if g.permanent(err) ||
			errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().
			Err(err).
			Str("guard", g.name).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retrying operation")
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), g.maxRetries), ctx), notify)
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := g.Execute(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (g *Guard) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.initial
	b.MaxInterval = g.maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (g *Guard) permanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return g.isPermanent != nil && g.isPermanent(err)
}
