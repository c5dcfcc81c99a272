package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists step records to a single SQLite file. Grounded on
// the teacher's SQLiteStore: WAL mode, a single-writer connection pool,
// auto-migration on first use — trimmed of the teacher's
// checkpoint/idempotency/outbox tables, which belong to its
// distributed-replay domain, not FlowCore's audit trail.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures the flow_steps table exists. path may be ":memory:" for a
// throwaway in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("flow/store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flow/store: enable WAL: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_steps (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			flow_instance_id TEXT NOT NULL,
			step_index       INTEGER NOT NULL,
			step_data        TEXT NOT NULL,
			current_state    TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flow/store: create table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_flow_steps_instance ON flow_steps(flow_instance_id)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flow/store: create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveStep(ctx context.Context, rec Record) error {
	stepData, err := json.Marshal(rec.StepData)
	if err != nil {
		return fmt.Errorf("flow/store: marshal step data: %w", err)
	}
	state, err := json.Marshal(rec.CurrentState)
	if err != nil {
		return fmt.Errorf("flow/store: marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flow_steps (flow_instance_id, step_index, step_data, current_state) VALUES (?, ?, ?, ?)`,
		rec.FlowInstanceID, rec.StepIndex, string(stepData), string(state))
	if err != nil {
		return fmt.Errorf("flow/store: insert step: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSteps(ctx context.Context, flowInstanceID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_index, step_data, current_state FROM flow_steps WHERE flow_instance_id = ? ORDER BY id ASC`,
		flowInstanceID)
	if err != nil {
		return nil, fmt.Errorf("flow/store: query steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var idx int
		var stepData, state string
		if err := rows.Scan(&idx, &stepData, &state); err != nil {
			return nil, fmt.Errorf("flow/store: scan step: %w", err)
		}
		rec := Record{FlowInstanceID: flowInstanceID, StepIndex: idx}
		if err := json.Unmarshal([]byte(stepData), &rec.StepData); err != nil {
			return nil, fmt.Errorf("flow/store: unmarshal step data: %w", err)
		}
		if err := json.Unmarshal([]byte(state), &rec.CurrentState); err != nil {
			return nil, fmt.Errorf("flow/store: unmarshal state: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
