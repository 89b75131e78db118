package signals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
- scope: platform-alpha
  open_incidents: 2
  tracked_services: 8
  overdue_tasks: 10
  active_tasks: 40
  spent_amount: 300000
  planned_budget: 1000000
  open_defects: 6
  defect_budget: 20
  current_velocity: 18
  baseline_velocity: 24
- scope: mobile-beta
  open_incidents: 1
  tracked_services: 5
`

func writeSignalFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileSource_FetchAndScopes(t *testing.T) {
	src, err := NewFileSource(writeSignalFile(t, sampleYAML), testLogger())
	require.NoError(t, err)

	snap, err := src.Fetch(context.Background(), "platform-alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.OpenIncidents)
	assert.Equal(t, 8, snap.TrackedServices)
	assert.Equal(t, 1_000_000.0, snap.PlannedBudget)

	assert.ElementsMatch(t, []string{"platform-alpha", "mobile-beta"}, src.Scopes())
}

func TestFileSource_UnknownScope(t *testing.T) {
	src, err := NewFileSource(writeSignalFile(t, sampleYAML), testLogger())
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScope))
}

func TestFileSource_Reload(t *testing.T) {
	path := writeSignalFile(t, sampleYAML)
	src, err := NewFileSource(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`
- scope: platform-alpha
  open_incidents: 7
  tracked_services: 8
`), 0o644))
	require.NoError(t, src.Reload())

	snap, err := src.Fetch(context.Background(), "platform-alpha")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.OpenIncidents)

	_, err = src.Fetch(context.Background(), "mobile-beta")
	assert.Error(t, err, "reload replaces the whole snapshot set")
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yml"), testLogger())
	assert.Error(t, err)
}

func TestFileSource_MalformedYAML(t *testing.T) {
	_, err := NewFileSource(writeSignalFile(t, "scope: [broken"), testLogger())
	assert.Error(t, err)
}

func TestStaticSource_PutAndFetch(t *testing.T) {
	src := NewStaticSource()
	src.Put(Snapshot{Scope: "alpha", OpenIncidents: 3, TrackedServices: 10})

	snap, err := src.Fetch(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.OpenIncidents)

	_, err = src.Fetch(context.Background(), "beta")
	assert.True(t, errors.Is(err, ErrUnknownScope))
}

func TestFetch_CancelledContext(t *testing.T) {
	src := NewStaticSource(Snapshot{Scope: "alpha"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, "alpha")
	assert.ErrorIs(t, err, context.Canceled)
}
