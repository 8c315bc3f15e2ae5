// Package resilience wraps a call in a timeout, a circuit breaker and a retry
// schedule. The composition is fixed: retry(breaker(timeout(call))). A breaker
// rejection is never retried, and terminal errors are neither retried nor counted
// against the breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mosaic/pkg/platform/circuit"
	"mosaic/pkg/platform/sentinel"
)

// Observer receives per-attempt outcomes. Implemented by the metrics packages.
type Observer interface {
	ObserveAttempt(resource, outcome string)
}

// Attempt outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTerminal = "terminal"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
)

// ErrAttemptTimeout marks an attempt that ran past the per-attempt timeout.
var ErrAttemptTimeout = errors.New("attempt timed out")

type Option func(*Policy)

func WithTimeout(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the wait before the second attempt, the growth factor and the cap.
func WithBackoff(initial time.Duration, multiplier float64, maxWait time.Duration) Option {
	return func(p *Policy) {
		if initial > 0 {
			p.initialWait = initial
		}
		if multiplier >= 1 {
			p.multiplier = multiplier
		}
		if maxWait > 0 {
			p.maxWait = maxWait
		}
	}
}

// WithJitter sets the randomization factor applied to each wait.
func WithJitter(f float64) Option {
	return func(p *Policy) {
		if f >= 0 && f < 1 {
			p.jitter = f
		}
	}
}

// WithClassifier decides which errors are transient. Transient errors count
// against the breaker and are retried; everything else is terminal.
func WithClassifier(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.transient = fn
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Policy) {
		p.observer = o
	}
}

// Policy is immutable after construction and safe for concurrent use. The
// breaker it wraps carries the shared state.
type Policy struct {
	name        string
	breaker     *circuit.Breaker
	timeout     time.Duration
	maxAttempts int
	initialWait time.Duration
	multiplier  float64
	maxWait     time.Duration
	jitter      float64
	transient   func(error) bool
	logger      *slog.Logger
	observer    Observer
}

// New builds a policy named after the resource it protects. A nil breaker
// disables breaker accounting. Defaults: 2s timeout, 3 attempts, 1s wait, no growth.
func New(name string, breaker *circuit.Breaker, opts ...Option) *Policy {
	p := &Policy{
		name:        name,
		breaker:     breaker,
		timeout:     2 * time.Second,
		maxAttempts: 3,
		initialWait: time.Second,
		multiplier:  1,
		maxWait:     30 * time.Second,
		transient:   IsTransient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) Name() string {
	return p.name
}

// Execute runs fn under the policy. Exhausted retries and breaker rejections
// come back wrapping sentinel.ErrUnavailable; terminal errors come back as returned by fn.
func (p *Policy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		var ticket circuit.Ticket
		if p.breaker != nil {
			t, err := p.breaker.Acquire()
			if err != nil {
				p.observe(OutcomeRejected)
				return backoff.Permanent(fmt.Errorf("%w: %s: %w", sentinel.ErrUnavailable, p.name, err))
			}
			ticket = t
		}

		err := p.attempt(ctx, fn)
		switch {
		case err == nil:
			p.observe(OutcomeSuccess)
			if p.breaker != nil {
				ticket.Success()
			}
			return nil
		case !p.transient(err):
			p.observe(OutcomeTerminal)
			if p.breaker != nil {
				ticket.Release()
			}
			return backoff.Permanent(err)
		default:
			if errors.Is(err, ErrAttemptTimeout) {
				p.observe(OutcomeTimeout)
			} else {
				p.observe(OutcomeFailure)
			}
			if p.breaker != nil {
				ticket.Failure()
			}
			return err
		}
	}

	notify := func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "retrying call",
			"resource", p.name,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, p.schedule(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrUnavailable) || !p.transient(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %w", sentinel.ErrUnavailable, p.name, attempt, err)
}

// Do is Execute for calls that produce a value.
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (p *Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := fn(actx)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, p.timeout, err)
	}
	return err
}

func (p *Policy) schedule(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialWait
	eb.Multiplier = p.multiplier
	eb.MaxInterval = p.maxWait
	eb.RandomizationFactor = p.jitter
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.maxAttempts-1)), ctx)
}

func (p *Policy) observe(outcome string) {
	if p.observer != nil {
		p.observer.ObserveAttempt(p.name, outcome)
	}
}
