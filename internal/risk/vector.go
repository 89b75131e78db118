package risk

import "math"

// NumDimensions is the fixed dimensionality of a risk vector.
const NumDimensions = 5

// Dimension indexes into a Vector.
type Dimension int

const (
	DimTechnical Dimension = iota
	DimSchedule
	DimBudget
	DimQuality
	DimTeam
)

var dimensionNames = [NumDimensions]string{
	"technical", "schedule", "budget", "quality", "team",
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= NumDimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// Vector is a 5-dimensional risk vector. Every component is in [0,1];
// values are clipped at construction. A vector is created fresh each
// evaluation cycle and never mutated afterwards.
//
// It marshals to JSON as an ordered array: [technical, schedule, budget,
// quality, team].
type Vector [NumDimensions]float64

// Neutral is the vector used for brand-new scopes with no signal history.
func Neutral() Vector {
	return Vector{0.5, 0.5, 0.5, 0.5, 0.5}
}

// Magnitude returns the scalar summary of the vector: the mean of its
// components. It drives both state classification and confidence scoring.
func (v Vector) Magnitude() float64 {
	var sum float64
	for _, c := range v {
		sum += c
	}
	return sum / NumDimensions
}

// Clipped returns a copy with every component clamped to [0,1].
func (v Vector) Clipped() Vector {
	var out Vector
	for i, c := range v {
		out[i] = clip01(c)
	}
	return out
}

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func clip01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
