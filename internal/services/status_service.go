package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"riskpulse/internal/breaker"
	"riskpulse/internal/cache"
	"riskpulse/internal/infrastructure"
	"riskpulse/internal/risk"
	"riskpulse/internal/signals"
)

// Broadcaster pushes scope events to connected clients. The websocket hub
// implements it; a nil broadcaster disables pushes.
type Broadcaster interface {
	BroadcastTransition(scope string, from, to risk.State)
	BroadcastRefresh(scope, reason string)
}

// StatusService is the request façade over the uncertainty core. Per
// request it checks the adaptive cache, and on a miss runs one evaluation
// cycle behind the circuit breaker: extract, classify, filter, project,
// advise, cache with a state-appropriate TTL.
type StatusService struct {
	source    signals.Source
	extractor *risk.Extractor
	engine    *risk.Engine
	advisor   *risk.Advisor
	projector *risk.Projector
	cache     *cache.AdaptiveCache
	breaker   *breaker.Breaker
	hub       Broadcaster
	metrics   *infrastructure.RiskMetrics
	logger    *slog.Logger

	// flight collapses concurrent cache misses for the same scope into a
	// single computation.
	flight singleflight.Group

	// lastGood keeps the most recent successful assessment per scope for
	// the stale fallback; cache entries expire, these do not.
	mu       sync.RWMutex
	lastGood map[string]risk.Assessment
}

// StatusServiceDeps collects the façade's collaborators.
type StatusServiceDeps struct {
	Source    signals.Source
	Extractor *risk.Extractor
	Engine    *risk.Engine
	Advisor   *risk.Advisor
	Projector *risk.Projector
	Cache     *cache.AdaptiveCache
	Breaker   *breaker.Breaker
	Hub       Broadcaster
	Metrics   *infrastructure.RiskMetrics
	Logger    *slog.Logger
}

// NewStatusService wires the façade.
func NewStatusService(deps StatusServiceDeps) *StatusService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{
		source:    deps.Source,
		extractor: deps.Extractor,
		engine:    deps.Engine,
		advisor:   deps.Advisor,
		projector: deps.Projector,
		cache:     deps.Cache,
		breaker:   deps.Breaker,
		hub:       deps.Hub,
		metrics:   deps.Metrics,
		logger:    logger.With(slog.String("component", "status_service")),
		lastGood:  make(map[string]risk.Assessment),
	}
}

// GetStatus returns the current assessment for the scope, serving from
// cache when fresh. Failure handling follows the error taxonomy:
// validation errors propagate untouched; computation and upstream errors
// fall back to the previous assessment marked stale; an open circuit
// serves the degraded fallback immediately. A scope that has never been
// assessed gets a synthesized neutral default instead of an error.
func (s *StatusService) GetStatus(ctx context.Context, scope string) (risk.Assessment, error) {
	if a, ok := s.cache.Get(scope); ok {
		s.metrics.RecordCache(ctx, true)
		return a, nil
	}
	s.metrics.RecordCache(ctx, false)

	v, err, _ := s.flight.Do(scope, func() (interface{}, error) {
		return s.compute(ctx, scope)
	})
	if err == nil {
		return v.(risk.Assessment), nil
	}

	if risk.IsValidation(err) {
		return risk.Assessment{}, err
	}

	degraded := errors.Is(err, breaker.ErrOpen)
	s.logger.ErrorContext(ctx, "assessment failed, serving fallback",
		slog.String("scope", scope),
		slog.Bool("degraded", degraded),
		slog.String("error", err.Error()))
	return s.fallback(ctx, scope, degraded), nil
}

// compute runs one full evaluation cycle behind the circuit breaker.
func (s *StatusService) compute(ctx context.Context, scope string) (risk.Assessment, error) {
	var a risk.Assessment
	start := time.Now()

	err := s.breaker.Execute(func() error {
		snap, err := s.source.Fetch(ctx, scope)
		if err != nil {
			return err
		}

		vector, err := s.extractor.Extract(snap)
		if err != nil {
			return err
		}
		state := risk.Classify(vector)

		post, confidence, err := s.engine.Observe(ctx, scope, vector)
		if err != nil {
			return err
		}

		a = risk.Assessment{
			Scope:       scope,
			Vector:      vector,
			State:       state,
			Confidence:  confidence,
			Suggestions: s.advisor.Suggest(state, vector),
			Predictions: s.projector.Window(post.Dimensions),
			ComputedAt:  time.Now(),
			TTLSeconds:  int(s.cache.TTLFor(state).Seconds()),
		}
		return nil
	})
	if err != nil {
		return risk.Assessment{}, err
	}

	s.cache.Set(scope, a)
	s.recordGood(scope, a)
	s.metrics.RecordAssessment(ctx, scope, string(a.State), time.Since(start))
	return a, nil
}

// recordGood stores the last successful assessment and pushes a
// transition event when the classified state changed.
func (s *StatusService) recordGood(scope string, a risk.Assessment) {
	s.mu.Lock()
	prev, had := s.lastGood[scope]
	s.lastGood[scope] = a
	s.mu.Unlock()

	if had && prev.State != a.State && s.hub != nil {
		s.hub.BroadcastTransition(scope, prev.State, a.State)
	}
}

// fallback serves the previous assessment marked stale, or a synthesized
// neutral default for scopes that were never assessed.
func (s *StatusService) fallback(ctx context.Context, scope string, degraded bool) risk.Assessment {
	s.metrics.RecordStale(ctx, scope)

	s.mu.RLock()
	prev, ok := s.lastGood[scope]
	s.mu.RUnlock()

	if !ok {
		a := risk.NeutralAssessment(scope)
		a.Degraded = degraded
		return a
	}
	prev.Stale = true
	prev.Degraded = degraded
	return prev
}

// SubmitFeedback applies a reported decision outcome to the scope's prior
// and invalidates the cached assessment so the next read recomputes.
func (s *StatusService) SubmitFeedback(ctx context.Context, scope, decisionID string, rating int, uncertaintyAtDecision float64) error {
	prior, err := s.engine.ApplyFeedback(ctx, scope, rating, uncertaintyAtDecision)
	if err != nil {
		return err
	}

	s.cache.Invalidate(scope)
	s.metrics.RecordFeedback(ctx, scope, rating)
	if s.hub != nil {
		s.hub.BroadcastRefresh(scope, "feedback")
	}

	s.logger.InfoContext(ctx, "feedback recorded",
		slog.String("scope", scope),
		slog.String("decision_id", decisionID),
		slog.Int("rating", rating),
		slog.Float64("historical_accuracy", prior.HistoricalAccuracy))
	return nil
}

// Acknowledge marks a suggestion as acted on. It invalidates the cache so
// the next read reflects the intervention, but deliberately leaves the
// prior alone; learning happens only through feedback.
func (s *StatusService) Acknowledge(ctx context.Context, scope, suggestionID string) error {
	s.cache.Invalidate(scope)
	if s.hub != nil {
		s.hub.BroadcastRefresh(scope, "acknowledge")
	}

	s.logger.InfoContext(ctx, "suggestion acknowledged",
		slog.String("scope", scope),
		slog.String("suggestion_id", suggestionID))
	return nil
}

// Window recomputes the forward projection from the scope's current
// posterior with an optional custom horizon and interval.
func (s *StatusService) Window(ctx context.Context, scope string, horizon, interval time.Duration) ([]risk.PredictionPoint, error) {
	prior, err := s.engine.Prior(ctx, scope)
	if err != nil {
		return nil, err
	}

	projector := s.projector
	if horizon > 0 || interval > 0 {
		projector = risk.NewProjector(horizon, interval)
	}
	return projector.Window(prior.Dimensions), nil
}

// BreakerStats exposes the circuit breaker snapshot for health reporting.
func (s *StatusService) BreakerStats() breaker.Stats {
	return s.breaker.Stats()
}

// CacheStats exposes cache counters for health reporting.
func (s *StatusService) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}
