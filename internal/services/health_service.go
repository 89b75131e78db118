package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Pinger verifies a dependency is reachable. The prior store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports liveness and readiness of the service and its
// collaborators.
type HealthService struct {
	version   string
	buildTime string
	status    *StatusService
	store     Pinger
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// VersionInfo is the version endpoint response body.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a health service with injected dependencies.
func NewHealthService(version, buildTime string, status *StatusService, store Pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		status:    status,
		store:     store,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the full health report: runtime stats plus per-component
// status. Overall status degrades when the circuit breaker is not closed
// or the prior store is unreachable.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	overall := "healthy"
	components := make(map[string]interface{})

	if h.status != nil {
		stats := h.status.BreakerStats()
		components["breaker"] = map[string]interface{}{
			"state":                stats.State.String(),
			"consecutive_failures": stats.ConsecutiveFailures,
			"rejected":             stats.Rejected,
		}
		if stats.State.String() != "closed" {
			overall = "degraded"
		}
		components["cache"] = h.status.CacheStats()
	}

	if h.store != nil {
		storeStatus := "healthy"
		if err := h.store.Ping(ctx); err != nil {
			storeStatus = "unreachable"
			overall = "degraded"
			h.logger.WarnContext(ctx, "prior store unreachable",
				slog.String("error", err.Error()))
		}
		components["prior_store"] = map[string]interface{}{"status": storeStatus}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return HealthStatus{
		Status:    overall,
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(h.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
			"heap_alloc":     mem.HeapAlloc,
			"go_version":     runtime.Version(),
		},
		Services: components,
	}
}

// Ready reports whether the service can answer status requests: the store
// must be reachable and the breaker must not be open.
func (h *HealthService) Ready(ctx context.Context) bool {
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			return false
		}
	}
	if h.status != nil && h.status.BreakerStats().State.String() == "open" {
		return false
	}
	return true
}

// Version returns build identification.
func (h *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   h.version,
		BuildTime: h.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
