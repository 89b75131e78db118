package signals

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"
)

// FileSource serves snapshots from a YAML file on disk. It is the default
// source for local development and integration tests; production deployments
// plug in their own Source implementation against the ingestion pipeline.
//
// File format: a list of Snapshot entries, one per scope. Later entries for
// the same scope win.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]Snapshot
	loadedAt  time.Time
}

// NewFileSource creates a file-backed source and performs the initial load.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileSource{
		path:      path,
		logger:    logger.With(slog.String("component", "signal_source")),
		snapshots: make(map[string]Snapshot),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fetch returns the latest snapshot for the scope.
func (s *FileSource) Fetch(ctx context.Context, scope string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	snap, ok := s.snapshots[scope]
	s.mu.RUnlock()

	if !ok {
		return Snapshot{}, fmt.Errorf("fetch signals for %q: %w", scope, ErrUnknownScope)
	}
	return snap, nil
}

// Scopes returns all scopes present in the file, in no particular order.
func (s *FileSource) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scopes := make([]string, 0, len(s.snapshots))
	for scope := range s.snapshots {
		scopes = append(scopes, scope)
	}
	return scopes
}

// Reload re-reads the backing file, replacing the in-memory snapshot set.
func (s *FileSource) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read signal file: %w", err)
	}

	var entries []Snapshot
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse signal file %s: %w", s.path, err)
	}

	snapshots := make(map[string]Snapshot, len(entries))
	for _, e := range entries {
		if e.Scope == "" {
			continue
		}
		snapshots[e.Scope] = e
	}

	s.mu.Lock()
	s.snapshots = snapshots
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("signal file loaded",
		slog.String("path", s.path),
		slog.Int("scopes", len(snapshots)))
	return nil
}

// StaticSource is an in-memory Source, used in tests and as a fallback.
type StaticSource struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewStaticSource creates a source pre-populated with the given snapshots.
func NewStaticSource(snaps ...Snapshot) *StaticSource {
	m := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		m[s.Scope] = s
	}
	return &StaticSource{snapshots: m}
}

// Fetch returns the snapshot for the scope.
func (s *StaticSource) Fetch(ctx context.Context, scope string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	snap, ok := s.snapshots[scope]
	s.mu.RUnlock()

	if !ok {
		return Snapshot{}, fmt.Errorf("fetch signals for %q: %w", scope, ErrUnknownScope)
	}
	return snap, nil
}

// Put inserts or replaces the snapshot for its scope.
func (s *StaticSource) Put(snap Snapshot) {
	s.mu.Lock()
	s.snapshots[snap.Scope] = snap
	s.mu.Unlock()
}
