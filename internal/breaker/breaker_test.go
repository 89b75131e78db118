package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func passing() error { return nil }

// fakeClock lets tests advance through the recovery window instantly.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration)   { c.t = c.t.Add(d) }

func newTestBreaker(opts ...Option) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	opts = append(opts, withClock(clock.now))
	return New(opts...), clock
}

func TestBreaker(t *testing.T) {
	t.Run("stays closed under intermittent failures", func(t *testing.T) {
		b, _ := newTestBreaker()
		for i := 0; i < 10; i++ {
			assert.ErrorIs(t, b.Execute(failing), errBoom)
			require.NoError(t, b.Execute(passing))
		}
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("opens at the consecutive failure threshold", func(t *testing.T) {
		b, _ := newTestBreaker()
		for i := 0; i < DefaultThreshold; i++ {
			assert.ErrorIs(t, b.Execute(failing), errBoom)
		}
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("fails fast while open", func(t *testing.T) {
		b, _ := newTestBreaker(WithThreshold(2))
		b.Execute(failing)
		b.Execute(failing)

		calls := 0
		err := b.Execute(func() error { calls++; return nil })
		assert.ErrorIs(t, err, ErrOpen)
		assert.Zero(t, calls, "open circuit must not invoke the function")
	})

	t.Run("half-open trial success closes the circuit", func(t *testing.T) {
		b, clock := newTestBreaker(WithThreshold(2), WithRecovery(30*time.Second))
		b.Execute(failing)
		b.Execute(failing)

		clock.advance(31 * time.Second)
		require.NoError(t, b.Execute(passing))
		assert.Equal(t, StateClosed, b.State())
		require.NoError(t, b.Execute(passing))
	})

	t.Run("half-open trial failure reopens", func(t *testing.T) {
		b, clock := newTestBreaker(WithThreshold(2), WithRecovery(30*time.Second))
		b.Execute(failing)
		b.Execute(failing)

		clock.advance(31 * time.Second)
		assert.ErrorIs(t, b.Execute(failing), errBoom)
		assert.ErrorIs(t, b.Execute(passing), ErrOpen, "reopened circuit rejects immediately")

		// A fresh recovery window applies after reopening.
		clock.advance(31 * time.Second)
		require.NoError(t, b.Execute(passing))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("success resets the failure run", func(t *testing.T) {
		b, _ := newTestBreaker(WithThreshold(3))
		b.Execute(failing)
		b.Execute(failing)
		require.NoError(t, b.Execute(passing))
		b.Execute(failing)
		b.Execute(failing)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("state change callback fires on transitions", func(t *testing.T) {
		var transitions []string
		b, clock := newTestBreaker(
			WithThreshold(1),
			WithRecovery(time.Second),
			WithStateChange(func(from, to State) {
				transitions = append(transitions, from.String()+"->"+to.String())
			}),
		)

		b.Execute(failing)
		clock.advance(2 * time.Second)
		b.Execute(passing)

		assert.Equal(t, []string{
			"closed->open",
			"open->half-open",
			"half-open->closed",
		}, transitions)
	})

	t.Run("stats snapshot", func(t *testing.T) {
		b, _ := newTestBreaker(WithThreshold(2))
		b.Execute(passing)
		b.Execute(failing)
		b.Execute(failing)
		b.Execute(passing) // rejected

		stats := b.Stats()
		assert.Equal(t, StateOpen, stats.State)
		assert.Equal(t, int64(1), stats.TotalSuccesses)
		assert.Equal(t, int64(2), stats.TotalFailures)
		assert.Equal(t, int64(1), stats.Rejected)
		assert.Equal(t, 2, stats.ConsecutiveFailures)
	})
}
