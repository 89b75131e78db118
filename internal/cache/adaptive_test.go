package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskpulse/internal/risk"
)

func assessment(scope string, state risk.State) risk.Assessment {
	return risk.Assessment{
		Scope:      scope,
		Vector:     risk.Neutral(),
		State:      state,
		Confidence: 0.47,
		ComputedAt: time.Now(),
	}
}

func TestTTLTable(t *testing.T) {
	table := DefaultTTLTable()

	tests := []struct {
		state risk.State
		want  time.Duration
	}{
		{risk.StateDeterministic, 3600 * time.Second},
		{risk.StateProbabilistic, 1800 * time.Second},
		{risk.StateQuantum, 900 * time.Second},
		{risk.StateChaotic, 300 * time.Second},
		{risk.StateVoid, 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, table.TTLFor(tt.state))
		})
	}

	t.Run("unknown state falls back to the shortest ttl", func(t *testing.T) {
		assert.Equal(t, TTLVoid, table.TTLFor(risk.State("superposition")))
	})
}

func TestAdaptiveCache(t *testing.T) {
	t.Run("get after set returns the stored assessment", func(t *testing.T) {
		c := New(nil)
		defer c.Stop()

		c.Set("apollo", assessment("apollo", risk.StateQuantum))
		got, ok := c.Get("apollo")
		require.True(t, ok)
		assert.Equal(t, "apollo", got.Scope)
		assert.Equal(t, risk.StateQuantum, got.State)
		assert.Equal(t, 900, got.TTLSeconds)
	})

	t.Run("miss on unknown scope", func(t *testing.T) {
		c := New(nil)
		defer c.Stop()

		_, ok := c.Get("nope")
		assert.False(t, ok)
	})

	t.Run("expired entries are absent", func(t *testing.T) {
		c := New(TTLTable{risk.StateVoid: 10 * time.Millisecond})
		defer c.Stop()

		c.Set("apollo", assessment("apollo", risk.StateVoid))
		_, ok := c.Get("apollo")
		require.True(t, ok)

		time.Sleep(25 * time.Millisecond)
		_, ok = c.Get("apollo")
		assert.False(t, ok)
	})

	t.Run("invalidate forces a miss", func(t *testing.T) {
		c := New(nil)
		defer c.Stop()

		c.Set("apollo", assessment("apollo", risk.StateDeterministic))
		c.Invalidate("apollo")
		_, ok := c.Get("apollo")
		assert.False(t, ok)
	})

	t.Run("set replaces the previous entry", func(t *testing.T) {
		c := New(nil)
		defer c.Stop()

		c.Set("apollo", assessment("apollo", risk.StateDeterministic))
		c.Set("apollo", assessment("apollo", risk.StateChaotic))

		got, ok := c.Get("apollo")
		require.True(t, ok)
		assert.Equal(t, risk.StateChaotic, got.State)
		assert.Equal(t, 300, got.TTLSeconds)
	})

	t.Run("stats track hits and misses", func(t *testing.T) {
		c := New(nil)
		defer c.Stop()

		c.Set("apollo", assessment("apollo", risk.StateQuantum))
		c.Get("apollo")
		c.Get("apollo")
		c.Get("ghost")

		stats := c.Stats()
		assert.Equal(t, int64(2), stats["hit_count"])
		assert.Equal(t, int64(1), stats["miss_count"])
		assert.InDelta(t, 2.0/3.0, stats["hit_ratio"].(float64), 1e-9)
	})
}
