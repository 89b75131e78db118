package signals

import "context"

// Source supplies the latest aggregated signal snapshot for a scope.
// Implementations are expected to be safe for concurrent use; the status
// service calls Fetch from multiple request goroutines.
type Source interface {
	Fetch(ctx context.Context, scope string) (Snapshot, error)
}
