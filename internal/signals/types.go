package signals

import (
	"errors"
	"time"
)

// ErrUnknownScope is returned by a Source when no signals exist for a scope.
var ErrUnknownScope = errors.New("unknown scope")

// Snapshot holds the aggregated project signals for a single scope at a
// point in time. Aggregation happens upstream; the snapshot is already
// rolled up per scope and is the only input the risk engine consumes.
//
// A zero denominator (for example PlannedBudget == 0) means the upstream
// collector had no data for that signal group; the extractor treats the
// corresponding dimension as missing.
type Snapshot struct {
	Scope       string    `json:"scope" yaml:"scope"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`

	// Schedule signals
	ActiveTasks  int `json:"active_tasks" yaml:"active_tasks"`
	OverdueTasks int `json:"overdue_tasks" yaml:"overdue_tasks"`

	// Quality signals
	OpenDefects  int `json:"open_defects" yaml:"open_defects"`
	DefectBudget int `json:"defect_budget" yaml:"defect_budget"`

	// Budget signals
	SpentAmount   float64 `json:"spent_amount" yaml:"spent_amount"`
	PlannedBudget float64 `json:"planned_budget" yaml:"planned_budget"`

	// Team signals
	CurrentVelocity  float64 `json:"current_velocity" yaml:"current_velocity"`
	BaselineVelocity float64 `json:"baseline_velocity" yaml:"baseline_velocity"`

	// Technical signals
	OpenIncidents   int `json:"open_incidents" yaml:"open_incidents"`
	TrackedServices int `json:"tracked_services" yaml:"tracked_services"`
}
