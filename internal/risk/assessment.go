package risk

import "time"

// Assessment is one complete evaluation cycle for a scope: the extracted
// vector, its classification, the filter's confidence, ranked mitigations
// and the forward window. This is what the cache stores and the API serves.
type Assessment struct {
	Scope       string            `json:"scope"`
	Vector      Vector            `json:"vector"`
	State       State             `json:"state"`
	Confidence  float64           `json:"confidence"`
	Suggestions []Suggestion      `json:"suggestions"`
	Predictions []PredictionPoint `json:"predictions"`
	ComputedAt  time.Time         `json:"computed_at"`
	TTLSeconds  int               `json:"ttl_seconds"`

	// Stale marks an assessment served from a previous cycle because the
	// current one could not be computed.
	Stale bool `json:"stale"`

	// Degraded marks an assessment served while the circuit breaker is
	// open.
	Degraded bool `json:"degraded,omitempty"`
}

// NeutralAssessment synthesizes the fallback returned when a scope has no
// cached status and computation fails.
func NeutralAssessment(scope string) Assessment {
	v := Neutral()
	return Assessment{
		Scope:      scope,
		Vector:     v,
		State:      StateDeterministic,
		Confidence: 0.5,
		ComputedAt: time.Now(),
		Stale:      true,
	}
}
