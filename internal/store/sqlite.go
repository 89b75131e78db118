// Package store persists per-scope confidence priors so the recursive
// filter survives process restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"riskpulse/internal/risk"
)

const schema = `
CREATE TABLE IF NOT EXISTS priors (
	scope               TEXT PRIMARY KEY,
	technical           REAL NOT NULL,
	schedule            REAL NOT NULL,
	budget              REAL NOT NULL,
	quality             REAL NOT NULL,
	team                REAL NOT NULL,
	historical_accuracy REAL NOT NULL,
	updated_at          TEXT NOT NULL
);`

// SQLiteStore is a risk.PriorStore backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the prior database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open prior store: %w", err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent scope updates.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prior store schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load fetches the stored prior for a scope. The second return value is
// false when the scope has never been saved.
func (s *SQLiteStore) Load(ctx context.Context, scope string) (risk.Prior, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT technical, schedule, budget, quality, team, historical_accuracy, updated_at
		FROM priors WHERE scope = ?`, scope)

	var p risk.Prior
	var updatedAt string
	err := row.Scan(
		&p.Dimensions[risk.DimTechnical],
		&p.Dimensions[risk.DimSchedule],
		&p.Dimensions[risk.DimBudget],
		&p.Dimensions[risk.DimQuality],
		&p.Dimensions[risk.DimTeam],
		&p.HistoricalAccuracy,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return risk.Prior{}, false, nil
	}
	if err != nil {
		return risk.Prior{}, false, fmt.Errorf("load prior for %q: %w", scope, err)
	}

	if t, perr := time.Parse(time.RFC3339Nano, updatedAt); perr == nil {
		p.UpdatedAt = t
	}
	return p, true, nil
}

// Save upserts the prior for a scope.
func (s *SQLiteStore) Save(ctx context.Context, scope string, p risk.Prior) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO priors (scope, technical, schedule, budget, quality, team, historical_accuracy, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			technical = excluded.technical,
			schedule = excluded.schedule,
			budget = excluded.budget,
			quality = excluded.quality,
			team = excluded.team,
			historical_accuracy = excluded.historical_accuracy,
			updated_at = excluded.updated_at`,
		scope,
		p.Dimensions[risk.DimTechnical],
		p.Dimensions[risk.DimSchedule],
		p.Dimensions[risk.DimBudget],
		p.Dimensions[risk.DimQuality],
		p.Dimensions[risk.DimTeam],
		p.HistoricalAccuracy,
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save prior for %q: %w", scope, err)
	}
	return nil
}

// Scopes lists every scope with a stored prior.
func (s *SQLiteStore) Scopes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scope FROM priors ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// Ping verifies the database is reachable, for health checks.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
