package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists step records to a MySQL table. Grounded on the
// teacher's MySQLStore driver wiring and migration-on-connect pattern,
// trimmed of its checkpoint/idempotency/outbox tables for the same reason
// as SQLiteStore.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection using dsn (as accepted by
// github.com/go-sql-driver/mysql) and ensures the flow_steps table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("flow/store: open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flow/store: ping mysql: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flow_steps (
			id               BIGINT AUTO_INCREMENT PRIMARY KEY,
			flow_instance_id VARCHAR(255) NOT NULL,
			step_index       INT NOT NULL,
			step_data        JSON NOT NULL,
			current_state    JSON NOT NULL,
			INDEX idx_flow_steps_instance (flow_instance_id)
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("flow/store: create table: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) SaveStep(ctx context.Context, rec Record) error {
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
		rec.FlowInstanceID, rec.StepIndex, stepData, state)
	if err != nil {
		return fmt.Errorf("flow/store: insert step: %w", err)
	}
	return nil
}

func (s *MySQLStore) LoadSteps(ctx context.Context, flowInstanceID string) ([]Record, error) {
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
		var stepData, state []byte
		if err := rows.Scan(&idx, &stepData, &state); err != nil {
			return nil, fmt.Errorf("flow/store: scan step: %w", err)
		}
		rec := Record{FlowInstanceID: flowInstanceID, StepIndex: idx}
		if err := json.Unmarshal(stepData, &rec.StepData); err != nil {
			return nil, fmt.Errorf("flow/store: unmarshal step data: %w", err)
		}
		if err := json.Unmarshal(state, &rec.CurrentState); err != nil {
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
