// Package history persists parameter samples locally so trend and
// window queries do not depend on the upstream being reachable.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dnenndn/monitoringAPP/internal/store"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// Store reads and writes parameter samples in SQLite.
type Store struct {
	db *store.SQLiteStore
}

// NewStore creates a history store and applies its migrations.
func NewStore(ctx context.Context, db *store.SQLiteStore) (*Store, error) {
	if err := db.Migrate(ctx, "history", migrations); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// InsertSample appends one sample.
func (s *Store) InsertSample(ctx context.Context, sample models.HistorySample) error {
	_, err := s.db.DB().ExecContext(ctx,
		"INSERT INTO parameter_history (parameter_id, timestamp, value) VALUES (?, ?, ?)",
		sample.ParameterID, sample.Timestamp.UTC(), sample.Value,
	)
	if err != nil {
		return fmt.Errorf("insert sample for parameter %d: %w", sample.ParameterID, err)
	}
	return nil
}

// InsertSamples appends a batch of samples in one transaction. Used
// when backfilling from an upstream history fetch.
func (s *Store) InsertSamples(ctx context.Context, samples []models.HistorySample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO parameter_history (parameter_id, timestamp, value) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sample := range samples {
			if _, err := stmt.ExecContext(ctx, sample.ParameterID, sample.Timestamp.UTC(), sample.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Window returns samples for a parameter within the trailing period,
// oldest first. A non-positive period yields no samples.
func (s *Store) Window(ctx context.Context, parameterID int64, periodHours float64, now time.Time) ([]models.HistorySample, error) {
	if periodHours <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-time.Duration(periodHours * float64(time.Hour))).UTC()

	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT parameter_id, timestamp, value
		FROM parameter_history
		WHERE parameter_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC`,
		parameterID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query history window for parameter %d: %w", parameterID, err)
	}
	defer rows.Close()

	var samples []models.HistorySample
	for rows.Next() {
		var sample models.HistorySample
		if err := rows.Scan(&sample.ParameterID, &sample.Timestamp, &sample.Value); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return samples, nil
}

// Latest returns the most recent count samples for a parameter, oldest
// first, for trend analysis.
func (s *Store) Latest(ctx context.Context, parameterID int64, count int) ([]models.HistorySample, error) {
	if count <= 0 {
		return nil, nil
	}
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT parameter_id, timestamp, value FROM (
			SELECT parameter_id, timestamp, value
			FROM parameter_history
			WHERE parameter_id = ?
			ORDER BY timestamp DESC
			LIMIT ?
		) ORDER BY timestamp ASC`,
		parameterID, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest samples for parameter %d: %w", parameterID, err)
	}
	defer rows.Close()

	var samples []models.HistorySample
	for rows.Next() {
		var sample models.HistorySample
		if err := rows.Scan(&sample.ParameterID, &sample.Timestamp, &sample.Value); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return samples, nil
}

// Prune deletes samples older than the cutoff and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx,
		"DELETE FROM parameter_history WHERE timestamp < ?", cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history rows affected: %w", err)
	}
	return n, nil
}
