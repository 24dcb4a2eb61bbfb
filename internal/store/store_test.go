package store

import (
	"context"
	"database/sql"
	"testing"
)

func newMemStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateAppliesOnce(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	applied := 0
	migrations := []Migration{
		{
			Version:     1,
			Description: "create samples table",
			Up: func(tx *sql.Tx) error {
				applied++
				_, err := tx.Exec("CREATE TABLE samples (id INTEGER PRIMARY KEY)")
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "history", migrations); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := s.Migrate(ctx, "history", migrations); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if applied != 1 {
		t.Errorf("migration applied %d times, want 1", applied)
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	wantErr := sql.ErrConnDone
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Tx() error = %v, want %v", err, wantErr)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d after rollback, want 0", count)
	}
}
