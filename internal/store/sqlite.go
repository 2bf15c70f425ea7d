package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// migrations is an ordered list of SQL statements applied on startup.
// Each entry is idempotent (IF NOT EXISTS) so re-running is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS machines (
		id        TEXT PRIMARY KEY,
		os        TEXT NOT NULL DEFAULT '',
		last_seen TEXT NOT NULL,
		info      TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_machines_last_seen ON machines (last_seen DESC)`,
}

// SQLiteStore implements Store using a SQLite database. The schema-less part
// of each machine document lives in a JSON column so the merge-upsert can be
// a single json_patch statement.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// MergeMachine creates or field-merges a machine document. The merge is one
// statement, so concurrent reports for the same id serialise at the database
// and each call is atomic: a failed call leaves no partial update behind.
func (s *SQLiteStore) MergeMachine(ctx context.Context, id string, doc map[string]any) error {
	osLabel, lastSeen, info, err := splitDoc(doc)
	if err != nil {
		return err
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode machine fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO machines (id, os, last_seen, info) VALUES (?, ?, ?, json(?))
		 ON CONFLICT(id) DO UPDATE SET
			os        = excluded.os,
			last_seen = excluded.last_seen,
			info      = json_patch(machines.info, excluded.info)`,
		id, osLabel, lastSeen.UTC().Format(timeLayout), string(infoJSON))
	return err
}

func (s *SQLiteStore) GetMachine(ctx context.Context, id string) (*MachineRecord, error) {
	return scanMachine(s.db.QueryRowContext(ctx,
		`SELECT id, os, last_seen, info FROM machines WHERE id = ?`, id))
}

func (s *SQLiteStore) ListMachines(ctx context.Context) ([]*MachineRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, os, last_seen, info FROM machines ORDER BY last_seen DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var machines []*MachineRecord
	for rows.Next() {
		var r MachineRecord
		var seen, info string
		if err := rows.Scan(&r.ID, &r.OS, &seen, &info); err != nil {
			return nil, err
		}
		if err := fillMachine(&r, seen, info); err != nil {
			return nil, err
		}
		machines = append(machines, &r)
	}
	return machines, rows.Err()
}

func scanMachine(row *sql.Row) (*MachineRecord, error) {
	var r MachineRecord
	var seen, info string
	if err := row.Scan(&r.ID, &r.OS, &seen, &info); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := fillMachine(&r, seen, info); err != nil {
		return nil, err
	}
	return &r, nil
}

func fillMachine(r *MachineRecord, seen, info string) error {
	t, err := time.Parse(time.RFC3339Nano, seen)
	if err != nil {
		return fmt.Errorf("machine %s: bad last_seen %q: %w", r.ID, seen, err)
	}
	r.LastSeen = t
	if err := json.Unmarshal([]byte(info), &r.Info); err != nil {
		return fmt.Errorf("machine %s: decode fields: %w", r.ID, err)
	}
	return nil
}
