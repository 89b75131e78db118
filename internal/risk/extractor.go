package risk

import (
	"log/slog"

	"riskpulse/internal/signals"
)

// Extractor turns an aggregated signal snapshot into a risk vector. Each
// dimension has its own independent aggregation rule and is clipped to
// [0,1]. Extraction is pure: no state, no side effects beyond logging.
//
// A dimension whose signal group is absent from the snapshot (zero
// denominator) resolves to the configured fallback for that dimension; with
// no fallback configured the extraction fails with a ValidationError.
type Extractor struct {
	fallback    *Vector
	hasFallback bool
	logger      *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithFallback supplies per-dimension default values used when a signal
// group is missing from a snapshot.
func WithFallback(v Vector) ExtractorOption {
	return func(e *Extractor) {
		clipped := v.Clipped()
		e.fallback = &clipped
		e.hasFallback = true
	}
}

// NewExtractor creates an extractor. Without WithFallback, a missing signal
// group is a ValidationError.
func NewExtractor(logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{logger: logger.With(slog.String("component", "extractor"))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the risk vector for the snapshot.
//
// Dimension rules, each clipped to [0,1]:
//
//	technical = open incidents / tracked services
//	schedule  = overdue tasks / active tasks
//	budget    = spent amount / planned budget
//	quality   = open defects / defect budget
//	team      = (baseline velocity - current velocity) / baseline velocity
func (e *Extractor) Extract(snap signals.Snapshot) (Vector, error) {
	var v Vector

	rules := [NumDimensions]struct {
		field string
		num   float64
		den   float64
	}{
		DimTechnical: {"tracked_services", float64(snap.OpenIncidents), float64(snap.TrackedServices)},
		DimSchedule:  {"active_tasks", float64(snap.OverdueTasks), float64(snap.ActiveTasks)},
		DimBudget:    {"planned_budget", snap.SpentAmount, snap.PlannedBudget},
		DimQuality:   {"defect_budget", float64(snap.OpenDefects), float64(snap.DefectBudget)},
		DimTeam:      {"baseline_velocity", snap.BaselineVelocity - snap.CurrentVelocity, snap.BaselineVelocity},
	}

	for dim, rule := range rules {
		if rule.den <= 0 {
			if !e.hasFallback {
				return Vector{}, &ValidationError{
					Field:  rule.field,
					Reason: "signal absent and no fallback configured",
				}
			}
			v[dim] = e.fallback[dim]
			e.logger.Debug("signal missing, using fallback",
				slog.String("scope", snap.Scope),
				slog.String("dimension", Dimension(dim).String()))
			continue
		}
		v[dim] = clip01(rule.num / rule.den)
	}

	if !v.IsFinite() {
		return Vector{}, &ComputationError{Op: "extract", Err: errNonFinite}
	}
	return v, nil
}
