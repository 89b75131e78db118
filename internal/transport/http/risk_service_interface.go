package http

import (
	"context"
	"time"

	"riskpulse/internal/risk"
	"riskpulse/internal/services"
)

// RiskService is the surface of the status service the risk handler uses.
type RiskService interface {
	GetStatus(ctx context.Context, scope string) (risk.Assessment, error)
	SubmitFeedback(ctx context.Context, scope, decisionID string, rating int, uncertaintyAtDecision float64) error
	Acknowledge(ctx context.Context, scope, suggestionID string) error
	Window(ctx context.Context, scope string, horizon, interval time.Duration) ([]risk.PredictionPoint, error)
}

// HealthService is the surface of the health service the health handler uses.
type HealthService interface {
	Check(ctx context.Context) services.HealthStatus
	Ready(ctx context.Context) bool
	Version() services.VersionInfo
}
