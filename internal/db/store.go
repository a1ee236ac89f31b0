// Package db provides database connectivity and migration logic for openainodes.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metalagman/openainodes/internal/llmconfig"
)

// Store persists model configurations.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for model configuration persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PutLLMConfig inserts or replaces a model configuration.
func (s *Store) PutLLMConfig(ctx context.Context, rec llmconfig.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("llm config id is required")
	}
	if rec.Model == "" {
		return fmt.Errorf("llm config %s: llm name is required", rec.ID)
	}
	provider := rec.Provider
	if provider == "" {
		provider = llmconfig.DefaultProvider
	}
	var params sql.NullString
	if len(rec.Parameters) > 0 {
		raw, err := json.Marshal(rec.Parameters)
		if err != nil {
			return fmt.Errorf("marshal llm config parameters: %w", err)
		}
		params = sql.NullString{String: string(raw), Valid: true}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO llm_configs(id, llm_name, provider, parameters, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET llm_name=excluded.llm_name, provider=excluded.provider,
			parameters=excluded.parameters, updated_at=excluded.updated_at`,
		rec.ID, rec.Model, provider, params, now, now); err != nil {
		return fmt.Errorf("upsert llm config: %w", err)
	}
	return nil
}

// LLMConfig returns the configuration stored under id.
func (s *Store) LLMConfig(ctx context.Context, id string) (llmconfig.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, llm_name, provider, parameters FROM llm_configs WHERE id=?`, id)
	rec, err := scanLLMConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return llmconfig.Record{}, llmconfig.NotFound(id)
	}
	if err != nil {
		return llmconfig.Record{}, fmt.Errorf("get llm config: %w", err)
	}
	return rec, nil
}

// Resolve implements llmconfig.Resolver.
func (s *Store) Resolve(ctx context.Context, id string) (llmconfig.Record, error) {
	return s.LLMConfig(ctx, id)
}

// ListLLMConfigs returns every stored configuration ordered by id.
func (s *Store) ListLLMConfigs(ctx context.Context) ([]llmconfig.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, llm_name, provider, parameters FROM llm_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list llm configs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []llmconfig.Record
	for rows.Next() {
		rec, err := scanLLMConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan llm config: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list llm configs: %w", err)
	}
	return out, nil
}

// DeleteLLMConfig removes the configuration stored under id.
func (s *Store) DeleteLLMConfig(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM llm_configs WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete llm config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete llm config: %w", err)
	}
	if n == 0 {
		return llmconfig.NotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLLMConfig(row scanner) (llmconfig.Record, error) {
	var (
		rec    llmconfig.Record
		params sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Model, &rec.Provider, &params); err != nil {
		return llmconfig.Record{}, err
	}
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &rec.Parameters); err != nil {
			return llmconfig.Record{}, fmt.Errorf("decode parameters of %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
