// Package circuitbreaker guards the planner's backing services with
// sony/gobreaker.
//
// A Breaker opens after a run of consecutive failures and rejects calls with
// ErrCircuitOpen. Once the cooldown has passed a single probe is let through:
// success closes the breaker, failure reopens it for another cooldown.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// State is the position of a Breaker.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// ErrCircuitOpen is returned without calling through while the breaker is
// open or its probe is in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a Breaker.
type Settings struct {
	// Name labels the breaker in metrics and logs.
	Name string
	// Trip is the number of consecutive failures that opens the breaker.
	Trip uint32
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// OnStateChange, when set, is called on every transition. It runs with
	// the breaker locked and must not call back into it.
	OnStateChange func(name string, from, to State)
}

// Presets for the planner's backing services.
var (
	// InterestCache guards the Redis interest cache. An open breaker means
	// the cache is bypassed, so it trips early and probes again soon.
	InterestCache = Settings{Name: "interest-cache", Trip: 3, Cooldown: 15 * time.Second}
	// PlanStore guards the PostgreSQL plan tables.
	PlanStore = Settings{Name: "plan-store", Trip: 3, Cooldown: 10 * time.Second}
)

// OnChange returns a copy of s that reports transitions to fn.
func (s Settings) OnChange(fn func(name string, from, to State)) Settings {
	s.OnStateChange = fn
	return s
}

// Breaker is safe for concurrent use.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// New creates a closed Breaker. Trip and Cooldown default to 5 and 30s.
func New(s Settings) *Breaker {
	if s.Trip == 0 {
		s.Trip = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	trip := s.Trip

	return &Breaker{cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		IsSuccessful:  countsAsSuccess,
		OnStateChange: s.OnStateChange,
	})}
}

// countsAsSuccess keeps a caller giving up from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Execute calls fn unless the breaker is open. fn's error is returned as is.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current state. An open breaker whose cooldown has passed
// reports StateHalfOpen.
func (b *Breaker) State() State {
	return b.cb.State()
}
