package risk

import "time"

// Prediction defaults.
const (
	DefaultHorizon  = 24 * time.Hour
	DefaultInterval = 6 * time.Hour

	// defaultDamping is the per-step decay factor toward the neutral 0.5.
	// With a single observation there is no slope to extrapolate, so the
	// window assumes reversion to neutral instead of trend continuation.
	defaultDamping = 0.85
)

// PredictionPoint is one step of the forward projection window.
type PredictionPoint struct {
	OffsetHours float64 `json:"offset_hours"`
	Vector      Vector  `json:"projected_vector"`
	State       State   `json:"projected_state"`
}

// Projector generates the predictive window from a posterior vector.
type Projector struct {
	horizon  time.Duration
	interval time.Duration
	damping  float64
}

// NewProjector creates a projector. Non-positive horizon or interval fall
// back to the defaults.
func NewProjector(horizon, interval time.Duration) *Projector {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Projector{horizon: horizon, interval: interval, damping: defaultDamping}
}

// Window projects the posterior forward at offsets {0, interval, 2*interval,
// ...} up to but excluding the horizon. Each dimension decays toward 0.5 by
// the damping factor per step, and every projected vector is reclassified
// independently. Deterministic for identical inputs.
func (p *Projector) Window(posterior Vector) []PredictionPoint {
	points := make([]PredictionPoint, 0, int(p.horizon/p.interval))
	factor := 1.0
	for offset := time.Duration(0); offset < p.horizon; offset += p.interval {
		var projected Vector
		for i, c := range posterior {
			projected[i] = clip01(0.5 + (c-0.5)*factor)
		}
		points = append(points, PredictionPoint{
			OffsetHours: offset.Hours(),
			Vector:      projected,
			State:       Classify(projected),
		})
		factor *= p.damping
	}
	return points
}
