package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"riskpulse/internal/config"
	"riskpulse/internal/infrastructure"
	"riskpulse/internal/risk"
	"riskpulse/internal/signals"
	"riskpulse/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{Enabled: false},
		},
		Risk: config.RiskConfig{
			Likelihood:         0.8,
			PredictionHorizon:  24 * time.Hour,
			PredictionInterval: 6 * time.Hour,
		},
		Cache: config.CacheConfig{
			TTLDeterministic: 3600 * time.Second,
			TTLProbabilistic: 1800 * time.Second,
			TTLQuantum:       900 * time.Second,
			TTLChaotic:       300 * time.Second,
			TTLVoid:          60 * time.Second,
		},
		Breaker: config.BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// newTestApp wires an Application over in-memory dependencies and returns
// its router.
func newTestApp(t *testing.T) *Application {
	t.Helper()

	source := signals.NewStaticSource(signals.Snapshot{
		Scope:            "platform-alpha",
		CollectedAt:      time.Now(),
		OpenIncidents:    2,
		TrackedServices:  8,
		OverdueTasks:     10,
		ActiveTasks:      40,
		SpentAmount:      300_000,
		PlannedBudget:    1_000_000,
		OpenDefects:      6,
		DefectBudget:     20,
		CurrentVelocity:  18,
		BaselineVelocity: 24,
	})

	app := &Application{
		Config: testConfig(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: &infrastructure.MetricsProviders{
			Meter: noop.NewMeterProvider().Meter("test"),
		},
		Store:  store.NewMemoryStore(),
		Source: source,
	}

	require.NoError(t, app.initializeServices())
	app.setupRouter()
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		app.Cache.Stop()
	})
	return app
}

func TestRouter_StatusEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/risk/platform-alpha/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var a risk.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "platform-alpha", a.Scope)
	assert.Equal(t, risk.StateProbabilistic, a.State)
	assert.Equal(t, 1800, a.TTLSeconds)
}

func TestRouter_FeedbackEndpoint(t *testing.T) {
	app := newTestApp(t)

	body := `{"decision_id":"dec-1","rating":1,"uncertainty_at_decision":0.4}`
	r := httptest.NewRequest(http.MethodPost, "/api/risk/platform-alpha/feedback", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRouter_UnknownScopeServesNeutralFallback(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/risk/never-seen/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var a risk.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.True(t, a.Stale)
	assert.Equal(t, risk.StateDeterministic, a.State)
	assert.Equal(t, 0.5, a.Confidence)
}

func TestRouter_HealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"} {
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_InvalidJSONRejected(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodPost, "/api/risk/platform-alpha/feedback", strings.NewReader("{broken"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
