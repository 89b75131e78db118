package risk

// State is the discrete uncertainty classification of a risk vector.
type State string

const (
	StateDeterministic State = "deterministic"
	StateProbabilistic State = "probabilistic"
	StateQuantum       State = "quantum"
	StateChaotic       State = "chaotic"
	StateVoid          State = "void"
)

// Severity orders states from most stable (0) to most volatile (4).
func (s State) Severity() int {
	switch s {
	case StateDeterministic:
		return 0
	case StateProbabilistic:
		return 1
	case StateQuantum:
		return 2
	case StateChaotic:
		return 3
	case StateVoid:
		return 4
	default:
		return -1
	}
}

// Valid reports whether s is one of the five known states.
func (s State) Valid() bool { return s.Severity() >= 0 }

// Classification thresholds on vector magnitude. Intervals are half-open:
// a magnitude sitting exactly on a boundary belongs to the higher-severity
// bucket, so 0.30 classifies as quantum, not probabilistic.
const (
	thresholdProbabilistic = 0.10
	thresholdQuantum       = 0.30
	thresholdChaotic       = 0.60
	thresholdVoid          = 0.90
)

// Classify maps a vector's magnitude to its state. Total over [0,1]^5;
// there are no failure modes.
func Classify(v Vector) State {
	m := v.Magnitude()
	switch {
	case m < thresholdProbabilistic:
		return StateDeterministic
	case m < thresholdQuantum:
		return StateProbabilistic
	case m < thresholdChaotic:
		return StateQuantum
	case m < thresholdVoid:
		return StateChaotic
	default:
		return StateVoid
	}
}
