package risk

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	_ "embed"
)

//go:embed playbook.yml
var defaultPlaybook []byte

// PlaybookAction is one mitigation option for a dimension, with its
// heuristic cost, reduction and success probability.
type PlaybookAction struct {
	Description        string  `yaml:"description"`
	BaseCost           float64 `yaml:"base_cost"`
	RiskReduction      float64 `yaml:"risk_reduction"`
	SuccessProbability float64 `yaml:"success_probability"`
}

// Playbook is the advisor's heuristic table, loaded from YAML. The embedded
// default ships with the binary; deployments may override it with a file.
type Playbook struct {
	// ExposureUnit converts a unitless risk component into a monetary
	// exposure proxy for ROI computation.
	ExposureUnit float64 `yaml:"exposure_unit"`

	// Activation is the minimum dimension component that triggers
	// suggestions for that dimension.
	Activation float64 `yaml:"activation"`

	Actions map[string][]PlaybookAction `yaml:"actions"`
}

// LoadPlaybook reads a playbook from path, or the embedded default when
// path is empty.
func LoadPlaybook(path string) (*Playbook, error) {
	data := defaultPlaybook
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read playbook: %w", err)
		}
	}

	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("parse playbook: %w", err)
	}
	if pb.ExposureUnit <= 0 {
		pb.ExposureUnit = 50000
	}
	if pb.Activation <= 0 {
		pb.Activation = 0.4
	}
	return &pb, nil
}

// Suggestion is one ranked mitigation option. Fresh per cycle, never
// persisted.
type Suggestion struct {
	ID                     string  `json:"id"`
	Dimension              string  `json:"dimension"`
	Description            string  `json:"description"`
	EstimatedCost          float64 `json:"estimated_cost"`
	EstimatedRiskReduction float64 `json:"estimated_risk_reduction"`
	SuccessProbability     float64 `json:"success_probability"`
	ROI                    float64 `json:"computed_roi"`
}

// Advisor proposes and ranks mitigations for the current state and vector.
type Advisor struct {
	playbook *Playbook
	logger   *slog.Logger
}

// NewAdvisor creates an advisor over the given playbook.
func NewAdvisor(pb *Playbook, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		playbook: pb,
		logger:   logger.With(slog.String("component", "mitigation_advisor")),
	}
}

// severityWeight scales the monetary exposure of an unmitigated risk by
// state volatility.
func severityWeight(s State) float64 {
	switch s {
	case StateProbabilistic:
		return 0.5
	case StateQuantum:
		return 1.0
	case StateChaotic:
		return 1.5
	case StateVoid:
		return 2.0
	default:
		return 0
	}
}

// costWeight scales mitigation cost: acting under volatile states is more
// expensive.
func costWeight(s State) float64 {
	switch s {
	case StateChaotic:
		return 1.25
	case StateVoid:
		return 1.5
	default:
		return 1.0
	}
}

// Suggest returns mitigation suggestions for the vector under the given
// state, sorted descending by ROI. A deterministic state yields none.
//
// ROI per suggestion: (risk_cost * success_probability - cost) / cost,
// where risk_cost is the dimension component scaled by the playbook's
// exposure unit and the state's severity weight.
func (a *Advisor) Suggest(state State, v Vector) []Suggestion {
	if state == StateDeterministic {
		return nil
	}

	var out []Suggestion
	for dim := 0; dim < NumDimensions; dim++ {
		component := v[dim]
		if component < a.playbook.Activation {
			continue
		}
		name := Dimension(dim).String()
		riskCost := component * a.playbook.ExposureUnit * severityWeight(state)
		for _, action := range a.playbook.Actions[name] {
			cost := action.BaseCost * costWeight(state)
			if cost <= 0 {
				continue
			}
			out = append(out, Suggestion{
				ID:                     uuid.New().String(),
				Dimension:              name,
				Description:            action.Description,
				EstimatedCost:          cost,
				EstimatedRiskReduction: action.RiskReduction * component,
				SuccessProbability:     action.SuccessProbability,
				ROI:                    (riskCost*action.SuccessProbability - cost) / cost,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ROI > out[j].ROI })
	return out
}
