package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type instantClock struct{ delays []time.Duration }

func (c *instantClock) Now() time.Time { return time.Time{} }
func (c *instantClock) Sleep(ctx context.Context, d time.Duration) bool {
	c.delays = append(c.delays, d)
	return true
}

var errRetriableHTTP = errors.New("503")
var errTerminal = errors.New("500")

func classifyTest(err error) Kind {
	switch err {
	case errRetriableHTTP:
		return KindTransient
	default:
		return KindTerminal
	}
}

// S2. Retry budget: max_retries=2, initial=0.5, multiplier=2.0, server
// returns 503 three times then 200. Total attempts = 3, delays before
// attempts 2 and 3 = 0.5, 1.0.
func TestS2RetryBudgetSucceedsOnThirdAttempt(t *testing.T) {
	clock := &instantClock{}
	e := New(Policy{MaxRetries: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2.0}, classifyTest).WithClock(clock)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errRetriableHTTP
		}
		return nil
	}, nil)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, clock.delays)
}

func TestS2RetryBudgetExhaustedSurfacesError(t *testing.T) {
	clock := &instantClock{}
	e := New(Policy{MaxRetries: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2.0}, classifyTest).WithClock(clock)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errRetriableHTTP
	}, nil)

	require.ErrorIs(t, err, errRetriableHTTP)
	require.Equal(t, 3, calls) // 1 + max_retries
}

func TestTerminalErrorsPropagateImmediately(t *testing.T) {
	clock := &instantClock{}
	e := New(Policy{MaxRetries: 5, InitialDelay: time.Millisecond, Multiplier: 2.0}, classifyTest).WithClock(clock)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTerminal
	}, nil)

	require.ErrorIs(t, err, errTerminal)
	require.Equal(t, 1, calls)
	require.Empty(t, clock.delays)
}

// Boundary: max_retries == 0 => transient errors surface on first failure.
func TestMaxRetriesZeroSurfacesOnFirstFailure(t *testing.T) {
	clock := &instantClock{}
	e := New(Policy{MaxRetries: 0, InitialDelay: time.Millisecond, Multiplier: 2.0}, classifyTest).WithClock(clock)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errRetriableHTTP
	}, nil)

	require.ErrorIs(t, err, errRetriableHTTP)
	require.Equal(t, 1, calls)
}

// Invariant 6: retry delays monotonically non-decrease across consecutive
// retries for a single call.
func TestDelaysAreNonDecreasing(t *testing.T) {
	clock := &instantClock{}
	e := New(Policy{MaxRetries: 4, InitialDelay: 10 * time.Millisecond, Multiplier: 1.5}, classifyTest).WithClock(clock)

	_ = e.Do(context.Background(), func(ctx context.Context) error {
		return errRetriableHTTP
	}, nil)

	for i := 1; i < len(clock.delays); i++ {
		require.GreaterOrEqual(t, clock.delays[i], clock.delays[i-1])
	}
}

func TestContextCancellationDuringBackoffAborts(t *testing.T) {
	e := New(Policy{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 2.0}, classifyTest)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Do(ctx, func(ctx context.Context) error {
		return errRetriableHTTP
	}, nil)
	require.Error(t, err)
}

func TestSetProcessSleepBindsOnce(t *testing.T) {
	// SetProcessSleep is initialize-once; a second call must not replace
	// an already-bound clock. We cannot reset sleepBound across test runs
	// within the same process, so this only checks the function does not
	// panic and returns without requiring the new clock to take effect.
	c1 := &instantClock{}
	SetProcessSleep(c1)
	c2 := &instantClock{}
	SetProcessSleep(c2)
}
