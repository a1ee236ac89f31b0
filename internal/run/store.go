// Package run persists node invocations and their events.
package run

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metalagman/openainodes/internal/node"
)

// Invocation statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned for an unknown invocation id.
var ErrNotFound = errors.New("invocation not found")

// Store persists invocation records.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for invocation persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Invocation is one recorded node call.
type Invocation struct {
	ID        string         `json:"invocation_id"`
	Node      string         `json:"node"`
	Status    string         `json:"status"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

// Event is a timestamped entry in an invocation's log.
type Event struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"ts"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// Start inserts the invocation record and an invocation_started event.
func (s *Store) Start(ctx context.Context, id, nodeName string, in node.Inputs) error {
	inputs, err := marshalNullable(in)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	startedAt := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin start invocation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO invocations(invocation_id, node, status, inputs, started_at)
		VALUES(?, ?, ?, ?, ?)`,
		id, nodeName, StatusRunning, inputs, startedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert invocation: %w", err)
	}
	if err := insertEvent(ctx, tx, id, "invocation_started", "invocation started"); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start invocation: %w", err)
	}
	return nil
}

// Finish stores the outcome and an invocation_finished event in one transaction.
func (s *Store) Finish(ctx context.Context, id string, out node.Outcome) error {
	status := StatusSucceeded
	message := "invocation succeeded"
	if !out.Success {
		status = StatusFailed
		message = out.Message
	}
	outputs, err := marshalNullable(out.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	endedAt := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish invocation: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE invocations SET status=?, error_kind=?, message=?, outputs=?, ended_at=?
		WHERE invocation_id=?`,
		status, nullableString(string(out.Kind)), nullableString(out.Message), outputs, endedAt, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update invocation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := insertEvent(ctx, tx, id, "invocation_finished", message); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish invocation: %w", err)
	}
	return nil
}

// Interrupt marks invocations still running that started before cutoff as
// failed. It returns how many were marked.
func (s *Store) Interrupt(ctx context.Context, cutoff time.Time) (int, error) {
	const message = "invocation interrupted before completion"
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin interrupt: %w", err)
	}
	rows, err := tx.QueryContext(ctx, `SELECT invocation_id FROM invocations WHERE status=? AND started_at<?`,
		StatusRunning, cutoff.UTC().Format(timeLayout))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("list stale invocations: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("scan stale invocation: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()

	endedAt := time.Now().UTC().Format(timeLayout)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE invocations SET status=?, message=?, ended_at=? WHERE invocation_id=?`,
			StatusFailed, message, endedAt, id); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("interrupt invocation %s: %w", id, err)
		}
		if err := insertEvent(ctx, tx, id, "invocation_interrupted", message); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit interrupt: %w", err)
	}
	return len(ids), nil
}

// Get returns the invocation stored under id.
func (s *Store) Get(ctx context.Context, id string) (Invocation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT invocation_id, node, status, error_kind, message, inputs, outputs, started_at, ended_at
		FROM invocations WHERE invocation_id=?`, id)
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Invocation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inv, err
}

// Filter narrows List.
type Filter struct {
	Node  string
	Limit int
}

// List returns invocations, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Invocation, error) {
	query := `SELECT invocation_id, node, status, error_kind, message, inputs, outputs, started_at, ended_at FROM invocations`
	var args []any
	if f.Node != "" {
		query += ` WHERE node=?`
		args = append(args, f.Node)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return out, nil
}

// Events returns the event log of an invocation in order.
func (s *Store) Events(ctx context.Context, id string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, ts, type, message FROM invocation_events WHERE invocation_id=? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ev.Seq, &ts, &ev.Type, &ev.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Time, _ = time.Parse(timeLayout, ts)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row scanner) (Invocation, error) {
	var (
		inv                      Invocation
		errorKind, message       sql.NullString
		inputs, outputs, endedAt sql.NullString
		startedAt                string
	)
	if err := row.Scan(&inv.ID, &inv.Node, &inv.Status, &errorKind, &message, &inputs, &outputs, &startedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invocation{}, err
		}
		return Invocation{}, fmt.Errorf("scan invocation: %w", err)
	}
	inv.ErrorKind = errorKind.String
	inv.Message = message.String
	if inputs.Valid {
		if err := json.Unmarshal([]byte(inputs.String), &inv.Inputs); err != nil {
			return Invocation{}, fmt.Errorf("decode inputs of %s: %w", inv.ID, err)
		}
	}
	if outputs.Valid {
		if err := json.Unmarshal([]byte(outputs.String), &inv.Outputs); err != nil {
			return Invocation{}, fmt.Errorf("decode outputs of %s: %w", inv.ID, err)
		}
	}
	inv.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if endedAt.Valid {
		if t, err := time.Parse(timeLayout, endedAt.String); err == nil {
			inv.EndedAt = &t
		}
	}
	return inv, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, id, typ, message string) error {
	seq, err := nextSeq(ctx, tx, id)
	if err != nil {
		return err
	}
	ts := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx, `INSERT INTO invocation_events(invocation_id, seq, ts, type, message) VALUES(?, ?, ?, ?, ?)`,
		id, seq, ts, typ, message); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func nextSeq(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM invocation_events WHERE invocation_id=?`, id)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("read event seq: %w", err)
	}
	return seq + 1, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func marshalNullable[M ~map[string]any](m M) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
