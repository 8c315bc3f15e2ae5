// Package circuit implements a count-based circuit breaker.
//
// A Breaker is CLOSED while the failure ratio over its sliding window of the last
// N outcomes stays below the threshold. Once the window is full and the ratio
// reaches the threshold it OPENs and rejects calls for the cooldown. After the
// cooldown the next Allow moves it to HALF_OPEN, which admits a fixed number of
// trial calls; their outcomes either close the breaker or reopen it.
//
// Callers that run calls concurrently take a Ticket from Acquire and settle it
// with exactly one of Success, Failure or Release. A ticket remembers the
// generation it was issued in; every state change starts a new generation and
// outcomes from an earlier one are dropped, so only the trial calls admitted in
// HALF_OPEN decide whether the breaker closes.
package circuit

import (
	"sync"
	"time"

	"mosaic/pkg/platform/sentinel"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateChange reports the transition caused by a single call, if any.
type StateChange struct {
	Opened     bool
	HalfOpened bool
	Closed     bool
}

// Changed reports whether any transition happened.
func (c StateChange) Changed() bool {
	return c.Opened || c.HalfOpened || c.Closed
}

// Listener observes transitions. It runs outside the breaker lock.
type Listener func(name string, from, to State)

type Option func(*Breaker)

// WithWindowSize sets how many recent outcomes are considered while CLOSED.
func WithWindowSize(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.windowSize = n
		}
	}
}

// WithFailureRatio sets the failure ratio in (0,1] that opens the breaker.
func WithFailureRatio(r float64) Option {
	return func(b *Breaker) {
		if r > 0 && r <= 1 {
			b.failureRatio = r
		}
	}
}

// WithOpenCooldown sets how long the breaker rejects calls before probing.
func WithOpenCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d >= 0 {
			b.cooldown = d
		}
	}
}

// WithHalfOpenCalls sets how many trial calls are admitted while HALF_OPEN.
func WithHalfOpenCalls(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.halfOpenCalls = n
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// WithListener registers a transition observer.
func WithListener(l Listener) Option {
	return func(b *Breaker) {
		if l != nil {
			b.listeners = append(b.listeners, l)
		}
	}
}

// Breaker is safe for concurrent use.
type Breaker struct {
	name          string
	windowSize    int
	failureRatio  float64
	cooldown      time.Duration
	halfOpenCalls int
	now           func() time.Time
	listeners     []Listener

	mu       sync.Mutex
	state    State
	gen      uint64
	window   []bool // true = failure
	next     int
	filled   int
	failures int
	openedAt time.Time

	trialsAdmitted int
	trialsDone     int
	trialFailures  int
}

// New creates a CLOSED breaker. Defaults: window 5, ratio 0.5, cooldown 10s, one trial call.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:          name,
		windowSize:    5,
		failureRatio:  0.5,
		cooldown:      10 * time.Second,
		halfOpenCalls: 1,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.window = make([]bool, b.windowSize)
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns the current position, resolving an elapsed cooldown lazily
// only on Allow so that observing the breaker never changes it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Ticket is one admitted call.
type Ticket struct {
	b   *Breaker
	gen uint64
}

// Generation is the breaker generation the ticket was issued in.
func (t Ticket) Generation() uint64 {
	return t.gen
}

// Success settles the ticket as a successful call.
func (t Ticket) Success() (usePrimary bool, change StateChange) {
	notClosed, change := t.b.record(false, t.gen, true)
	return !notClosed, change
}

// Failure settles the ticket as a failed call.
func (t Ticket) Failure() (useFallback bool, change StateChange) {
	return t.b.record(true, t.gen, true)
}

// Release settles the ticket without counting it, for outcomes that say
// nothing about the health of the dependency.
func (t Ticket) Release() {
	t.b.release(t.gen, true)
}

// Acquire admits a call. It returns sentinel.ErrCircuitOpen while OPEN and
// when every HALF_OPEN trial slot is taken.
func (b *Breaker) Acquire() (Ticket, error) {
	b.mu.Lock()
	var change StateChange
	from := b.state
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return Ticket{}, sentinel.ErrCircuitOpen
		}
		b.toHalfOpen()
		change.HalfOpened = true
	}
	if b.state == StateHalfOpen {
		if b.trialsAdmitted >= b.halfOpenCalls {
			b.mu.Unlock()
			b.notify(from, change)
			return Ticket{}, sentinel.ErrCircuitOpen
		}
		b.trialsAdmitted++
	}
	t := Ticket{b: b, gen: b.gen}
	b.mu.Unlock()
	b.notify(from, change)
	return t, nil
}

// Allow is Acquire for callers that record outcomes against whatever
// generation is current when they finish.
func (b *Breaker) Allow() error {
	_, err := b.Acquire()
	return err
}

// RecordFailure records a failed call. useFallback is true when the breaker is
// no longer CLOSED after recording.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	return b.record(true, 0, false)
}

// RecordSuccess records a successful call. usePrimary is true when the breaker
// is CLOSED after recording.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	notClosed, change := b.record(false, 0, false)
	return !notClosed, change
}

// Release gives back an admitted call without counting it.
func (b *Breaker) Release() {
	b.release(0, false)
}

func (b *Breaker) release(gen uint64, ticketed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ticketed && gen != b.gen {
		return
	}
	if b.state == StateHalfOpen && b.trialsAdmitted > b.trialsDone {
		b.trialsAdmitted--
	}
}

// Reset forces the breaker CLOSED with an empty window.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.toClosed()
	b.mu.Unlock()
	if from != StateClosed {
		b.notify(from, StateChange{Closed: true})
	}
}

// record returns whether the breaker is not CLOSED afterwards. Ticketed
// outcomes from an earlier generation leave the state untouched.
func (b *Breaker) record(failure bool, gen uint64, ticketed bool) (bool, StateChange) {
	b.mu.Lock()
	from := b.state
	var change StateChange

	if ticketed && gen != b.gen {
		notClosed := b.state != StateClosed
		b.mu.Unlock()
		return notClosed, change
	}

	switch b.state {
	case StateClosed:
		if b.filled == b.windowSize && b.window[b.next] {
			b.failures--
		}
		b.window[b.next] = failure
		if failure {
			b.failures++
		}
		b.next = (b.next + 1) % b.windowSize
		if b.filled < b.windowSize {
			b.filled++
		}
		if b.filled == b.windowSize && ratio(b.failures, b.windowSize) >= b.failureRatio {
			b.toOpen()
			change.Opened = true
		}
	case StateHalfOpen:
		b.trialsDone++
		if failure {
			b.trialFailures++
		}
		if b.trialsDone >= b.halfOpenCalls {
			if ratio(b.trialFailures, b.trialsDone) >= b.failureRatio {
				b.toOpen()
				change.Opened = true
			} else {
				b.toClosed()
				change.Closed = true
			}
		}
	case StateOpen:
		// Late outcome of a call admitted before the breaker opened.
	}

	notClosed := b.state != StateClosed
	b.mu.Unlock()
	b.notify(from, change)
	return notClosed, change
}

func (b *Breaker) toOpen() {
	b.gen++
	b.state = StateOpen
	b.openedAt = b.now()
}

func (b *Breaker) toHalfOpen() {
	b.gen++
	b.state = StateHalfOpen
	b.trialsAdmitted = 0
	b.trialsDone = 0
	b.trialFailures = 0
}

func (b *Breaker) toClosed() {
	b.gen++
	b.state = StateClosed
	clear(b.window)
	b.next = 0
	b.filled = 0
	b.failures = 0
}

func (b *Breaker) notify(from State, change StateChange) {
	if !change.Changed() || len(b.listeners) == 0 {
		return
	}
	// A single call can move OPEN -> HALF_OPEN -> CLOSED; report each hop.
	hops := make([]State, 0, 2)
	if change.HalfOpened {
		hops = append(hops, StateHalfOpen)
	}
	if change.Opened {
		hops = append(hops, StateOpen)
	}
	if change.Closed {
		hops = append(hops, StateClosed)
	}
	for _, to := range hops {
		for _, l := range b.listeners {
			l(b.name, from, to)
		}
		from = to
	}
}

func ratio(failures, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(failures) / float64(total)
}
