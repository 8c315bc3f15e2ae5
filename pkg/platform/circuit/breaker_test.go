package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/pkg/platform/sentinel"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestBreaker_InitialState(t *testing.T) {
	b := New("test")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "test", b.Name())
	assert.NoError(t, b.Allow())
}

func TestBreaker_StaysClosedUntilWindowIsFull(t *testing.T) {
	b := New("test", WithWindowSize(4), WithFailureRatio(0.5))

	for range 3 {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.False(t, change.Opened)
	}
	assert.False(t, b.IsOpen())

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_OpensAtFailureRatio(t *testing.T) {
	b := New("test", WithWindowSize(4), WithFailureRatio(0.5))

	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	_, change := b.RecordFailure()
	assert.True(t, change.Opened, "2 of 4 failures reaches the ratio")
}

func TestBreaker_WindowSlides(t *testing.T) {
	b := New("test", WithWindowSize(3), WithFailureRatio(0.6))

	// F S S -> 1/3
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	assert.False(t, b.IsOpen())

	// S S F -> oldest failure slid out, 1/3
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	// S F F -> 2/3 opens
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_OpenRejectsUntilCooldown(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithOpenCooldown(10*time.Second), WithClock(clock.Now))

	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)

	clock.Advance(9 * time.Second)
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)

	clock.Advance(time.Second)
	assert.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenAdmitsOnlyPermittedTrials(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithHalfOpenCalls(2), WithClock(clock.Now))
	b.RecordFailure()
	clock.Advance(time.Minute)

	assert.NoError(t, b.Allow())
	assert.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)
}

func TestBreaker_ClosesAfterSuccessfulTrial(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(2), WithClock(clock.Now))
	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.Advance(time.Minute)
	require.NoError(t, b.Allow())
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())

	// The window starts empty again.
	b.RecordFailure()
	assert.False(t, b.IsOpen())
}

func TestBreaker_ReopensAfterFailedTrial(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithOpenCooldown(5*time.Second), WithClock(clock.Now))
	b.RecordFailure()

	clock.Advance(5 * time.Second)
	require.NoError(t, b.Allow())
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)
}

func TestBreaker_TrialsDecideByRatio(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithHalfOpenCalls(3), WithFailureRatio(0.5), WithClock(clock.Now))
	b.RecordFailure()
	clock.Advance(time.Minute)

	for range 3 {
		require.NoError(t, b.Allow())
	}
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateHalfOpen, b.State())
	_, change := b.RecordSuccess()
	assert.True(t, change.Closed, "1 of 3 trial failures stays under the ratio")
}

func TestBreaker_ReleaseFreesTrialSlot(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithClock(clock.Now))
	b.RecordFailure()
	clock.Advance(time.Minute)

	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)
	b.Release()
	assert.NoError(t, b.Allow())
}

func TestBreaker_StaleSuccessDoesNotCloseHalfOpen(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(2), WithOpenCooldown(5*time.Second), WithClock(clock.Now))

	// Admitted while CLOSED, still in flight when the breaker opens.
	slow, err := b.Acquire()
	require.NoError(t, err)

	for range 2 {
		tk, err := b.Acquire()
		require.NoError(t, err)
		tk.Failure()
	}
	require.True(t, b.IsOpen())

	clock.Advance(5 * time.Second)
	trial, err := b.Acquire()
	require.NoError(t, err)
	require.Equal(t, StateHalfOpen, b.State())
	assert.NotEqual(t, slow.Generation(), trial.Generation())

	usePrimary, change := slow.Success()
	assert.False(t, usePrimary)
	assert.False(t, change.Changed())
	assert.Equal(t, StateHalfOpen, b.State(), "only the trial decides")

	useFallback, change := trial.Failure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_StaleFailureDoesNotReopen(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithClock(clock.Now))

	slow, err := b.Acquire()
	require.NoError(t, err)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.Advance(time.Minute)
	trial, err := b.Acquire()
	require.NoError(t, err)
	_, change := trial.Success()
	require.True(t, change.Closed)

	slow.Failure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_StaleReleaseKeepsTrialSlotTaken(t *testing.T) {
	clock := newClock()
	b := New("test", WithWindowSize(1), WithClock(clock.Now))

	slow, err := b.Acquire()
	require.NoError(t, err)
	b.RecordFailure()
	clock.Advance(time.Minute)

	_, err = b.Acquire()
	require.NoError(t, err)
	slow.Release()
	assert.ErrorIs(t, b.Allow(), sentinel.ErrCircuitOpen)
}

func TestBreaker_OpenCircuitReturnsFallback(t *testing.T) {
	b := New("test", WithWindowSize(1))
	b.RecordFailure()

	// Late outcomes while open do not change state.
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Changed())
	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Changed())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("test", WithWindowSize(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ListenerSeesEveryHop(t *testing.T) {
	clock := newClock()
	var mu sync.Mutex
	var hops []string
	b := New("product", WithWindowSize(1), WithClock(clock.Now), WithListener(func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		hops = append(hops, name+":"+from.String()+"->"+to.String())
	}))

	b.RecordFailure()
	clock.Advance(time.Minute)
	require.NoError(t, b.Allow())
	b.RecordSuccess()

	assert.Equal(t, []string{
		"product:CLOSED->OPEN",
		"product:OPEN->HALF_OPEN",
		"product:HALF_OPEN->CLOSED",
	}, hops)
}

func TestBreaker_ConcurrentRecording(t *testing.T) {
	b := New("test", WithWindowSize(100), WithFailureRatio(1))
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Allow()
			b.RecordSuccess()
		}()
	}
	wg.Wait()
	assert.Equal(t, StateClosed, b.State())
}

func TestRegistry_ReturnsSameBreakerPerName(t *testing.T) {
	r := NewRegistry(WithWindowSize(1))
	a := r.Get("product")
	assert.Same(t, a, r.Get("product"))
	r.Get("review")

	a.RecordFailure()
	assert.Equal(t, map[string]State{"product": StateOpen, "review": StateClosed}, r.States())
	assert.Equal(t, []string{"product", "review"}, r.Names())
}
