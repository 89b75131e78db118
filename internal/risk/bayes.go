package risk

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// DefaultLikelihood is the trust scalar applied to each observation.
const DefaultLikelihood = 0.8

// Nudge constants for feedback recalibration. The asymmetry between the
// multiplicative decay on positive outcomes and the additive increase on
// negative outcomes is intentional and must not be unified.
const (
	positiveDecay   = 0.9
	positiveFloor   = 0.1
	negativeStep    = 0.2
	negativeCeiling = 0.9
	accuracyStep    = 0.05
	accuracyFloor   = 0.5
	accuracyCeiling = 1.0
)

// Prior is the per-scope state of the recursive Bayesian filter: a
// 5-dimensional belief vector plus a historical accuracy scalar in [0,1].
// It is the only value in the engine that survives across cycles.
type Prior struct {
	Dimensions         Vector    `json:"dimensions"`
	HistoricalAccuracy float64   `json:"historical_accuracy"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NeutralPrior is the initial prior for a scope on first use.
func NeutralPrior() Prior {
	return Prior{Dimensions: Neutral(), HistoricalAccuracy: 0.7}
}

// PriorStore persists priors across process restarts. Load reports whether
// a stored prior existed; Save is called after every mutation.
type PriorStore interface {
	Load(ctx context.Context, scope string) (Prior, bool, error)
	Save(ctx context.Context, scope string, p Prior) error
}

// Engine owns the per-scope recursive filter state. All access to a given
// scope's prior is serialized through a per-scope mutex; distinct scopes
// proceed fully in parallel.
type Engine struct {
	store      PriorStore
	likelihood float64
	logger     *slog.Logger

	mu     sync.Mutex
	scopes map[string]*scopeState
}

type scopeState struct {
	mu     sync.Mutex
	loaded bool
	prior  Prior
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLikelihood overrides the default observation trust scalar.
func WithLikelihood(l float64) EngineOption {
	return func(e *Engine) { e.likelihood = l }
}

// NewEngine creates a confidence engine backed by the given store.
func NewEngine(store PriorStore, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:      store,
		likelihood: DefaultLikelihood,
		logger:     logger.With(slog.String("component", "confidence_engine")),
		scopes:     make(map[string]*scopeState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// scopeEntry returns the state holder for a scope, creating it if needed.
// The holder itself is cheap; loading from the store happens under the
// per-scope lock so that unrelated scopes never contend.
func (e *Engine) scopeEntry(scope string) *scopeState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.scopes[scope]
	if !ok {
		st = &scopeState{}
		e.scopes[scope] = st
	}
	return st
}

// ensureLoaded must be called with st.mu held.
func (e *Engine) ensureLoaded(ctx context.Context, scope string, st *scopeState) error {
	if st.loaded {
		return nil
	}
	p, found, err := e.store.Load(ctx, scope)
	if err != nil {
		return err
	}
	if !found {
		p = NeutralPrior()
	}
	st.prior = p
	st.loaded = true
	return nil
}

// Observe runs one filter cycle for the scope: it folds the observed vector
// into the stored prior, persists the posterior as the prior for the next
// cycle, and returns the posterior together with the confidence score.
func (e *Engine) Observe(ctx context.Context, scope string, obs Vector) (Prior, float64, error) {
	st := e.scopeEntry(scope)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.ensureLoaded(ctx, scope, st); err != nil {
		return Prior{}, 0, err
	}

	post, err := posterior(st.prior.Dimensions, obs, e.likelihood)
	if err != nil {
		return Prior{}, 0, err
	}

	st.prior.Dimensions = post
	st.prior.UpdatedAt = time.Now()
	e.persist(ctx, scope, st.prior)

	return st.prior, ConfidenceScore(post, st.prior.HistoricalAccuracy), nil
}

// ApplyFeedback applies the deterministic linear nudge for a reported
// outcome. rating is 1 for a good past decision, 0 for a bad one; anything
// else is a ValidationError and leaves the prior untouched. The uncertainty
// recorded at decision time is kept for the audit trail only.
func (e *Engine) ApplyFeedback(ctx context.Context, scope string, rating int, uncertaintyAtDecision float64) (Prior, error) {
	if rating != 0 && rating != 1 {
		return Prior{}, &ValidationError{Field: "rating", Reason: "must be 0 or 1"}
	}

	st := e.scopeEntry(scope)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.ensureLoaded(ctx, scope, st); err != nil {
		return Prior{}, err
	}

	if rating == 1 {
		for i, d := range st.prior.Dimensions {
			st.prior.Dimensions[i] = math.Max(d*positiveDecay, positiveFloor)
		}
		st.prior.HistoricalAccuracy = math.Min(st.prior.HistoricalAccuracy+accuracyStep, accuracyCeiling)
	} else {
		for i, d := range st.prior.Dimensions {
			st.prior.Dimensions[i] = math.Min(d+negativeStep, negativeCeiling)
		}
		st.prior.HistoricalAccuracy = math.Max(st.prior.HistoricalAccuracy-accuracyStep, accuracyFloor)
	}
	st.prior.UpdatedAt = time.Now()
	e.persist(ctx, scope, st.prior)

	e.logger.InfoContext(ctx, "feedback applied",
		slog.String("scope", scope),
		slog.Int("rating", rating),
		slog.Float64("uncertainty_at_decision", uncertaintyAtDecision),
		slog.Float64("historical_accuracy", st.prior.HistoricalAccuracy))

	return st.prior, nil
}

// Prior returns the current prior for the scope, loading it on first use.
func (e *Engine) Prior(ctx context.Context, scope string) (Prior, error) {
	st := e.scopeEntry(scope)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := e.ensureLoaded(ctx, scope, st); err != nil {
		return Prior{}, err
	}
	return st.prior, nil
}

// persist saves best-effort: a store failure degrades durability, not the
// request. Must be called with the scope lock held.
func (e *Engine) persist(ctx context.Context, scope string, p Prior) {
	if err := e.store.Save(ctx, scope, p); err != nil {
		e.logger.WarnContext(ctx, "prior save failed",
			slog.String("scope", scope),
			slog.String("error", err.Error()))
	}
}

// posterior computes the Bayesian update. evidence == 0 is a recoverable
// edge case: the prior passes through unchanged.
func posterior(prior, obs Vector, likelihood float64) (Vector, error) {
	var evidence float64
	for i := range obs {
		evidence += obs[i] * prior[i]
	}
	if evidence == 0 {
		return prior, nil
	}

	var post Vector
	for i := range obs {
		post[i] = likelihood * obs[i] * prior[i] / evidence
	}
	if !post.IsFinite() {
		return Vector{}, &ComputationError{Op: "posterior", Err: errNonFinite}
	}
	return post, nil
}

// ConfidenceScore derives the confidence for a posterior: the inverse
// magnitude base scaled by the scope's historical accuracy, clipped to [0,1].
func ConfidenceScore(post Vector, historicalAccuracy float64) float64 {
	base := 1 / (1 + post.Magnitude())
	return clip01(base * historicalAccuracy)
}
