package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_Check(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthService("1.2.3", "2026-08-01", env.svc, env.store, testLogger())

	status := h.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	require.Contains(t, status.Services, "breaker")
	require.Contains(t, status.Services, "prior_store")
	assert.NotZero(t, status.Runtime["goroutines"])
}

func TestHealthService_DegradedWhenStoreUnreachable(t *testing.T) {
	env := newTestEnv(t)
	env.store.pingErr = errors.New("disk gone")
	h := NewHealthService("1.2.3", "", env.svc, env.store, testLogger())

	status := h.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, h.Ready(context.Background()))
}

func TestHealthService_Ready(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthService("1.2.3", "", env.svc, env.store, testLogger())
	assert.True(t, h.Ready(context.Background()))
}

func TestHealthService_Version(t *testing.T) {
	h := NewHealthService("2.0.0", "2026-08-15", nil, nil, testLogger())
	v := h.Version()
	assert.Equal(t, "2.0.0", v.Version)
	assert.Equal(t, "2026-08-15", v.BuildTime)
	assert.NotEmpty(t, v.GoVersion)
}
