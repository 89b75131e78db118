package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskpulse/internal/risk"
)

func samplePrior() risk.Prior {
	return risk.Prior{
		Dimensions:         risk.Vector{0.1, 0.2, 0.3, 0.4, 0.5},
		HistoricalAccuracy: 0.85,
		UpdatedAt:          time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T) *SQLiteStore {
		t.Helper()
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "priors.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("load on an empty store reports absence", func(t *testing.T) {
		s := open(t)
		_, found, err := s.Load(ctx, "apollo")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		s := open(t)
		want := samplePrior()
		require.NoError(t, s.Save(ctx, "apollo", want))

		got, found, err := s.Load(ctx, "apollo")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.Dimensions, got.Dimensions)
		assert.Equal(t, want.HistoricalAccuracy, got.HistoricalAccuracy)
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("save upserts", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, "apollo", samplePrior()))

		updated := samplePrior()
		updated.HistoricalAccuracy = 0.6
		require.NoError(t, s.Save(ctx, "apollo", updated))

		got, found, err := s.Load(ctx, "apollo")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 0.6, got.HistoricalAccuracy)
	})

	t.Run("scopes lists saved scopes in order", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, "zephyr", samplePrior()))
		require.NoError(t, s.Save(ctx, "apollo", samplePrior()))

		scopes, err := s.Scopes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"apollo", "zephyr"}, scopes)
	})

	t.Run("ping", func(t *testing.T) {
		s := open(t)
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Load(ctx, "apollo")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, "apollo", samplePrior()))
	got, found, err := s.Load(ctx, "apollo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, samplePrior().Dimensions, got.Dimensions)

	scopes, err := s.Scopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apollo"}, scopes)
}
