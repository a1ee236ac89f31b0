// Package llmconfig resolves named model configurations for node invocations.
package llmconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultProvider is the provider recorded when none is given.
const DefaultProvider = "openai"

var (
	// ErrNotFound is returned when no configuration exists for an id.
	ErrNotFound = errors.New("LLM configuration not found")
	// ErrNoParameters is returned when a configuration has no usable connection parameters.
	ErrNoParameters = errors.New("failed to get typed parameters from LLM configuration")
)

// Record is a model configuration resolved by id.
type Record struct {
	ID         string         `json:"id"`
	Model      string         `json:"llm_name"`
	Provider   string         `json:"provider"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Parameters are the typed connection parameters of a Record.
type Parameters struct {
	APIKey    string        `mapstructure:"api_key"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TypedParameters decodes the raw parameter map.
func (r Record) TypedParameters() (Parameters, error) {
	if len(r.Parameters) == 0 {
		return Parameters{}, ErrNoParameters
	}

	var params Parameters
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &params,
	})
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrNoParameters, err)
	}
	if err := dec.Decode(r.Parameters); err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrNoParameters, err)
	}
	return params, nil
}

// Resolver looks up model configurations by id.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Record, error)
}

// NotFound builds the error returned for an unknown id.
func NotFound(id string) error {
	return fmt.Errorf("%w for ID: %s", ErrNotFound, id)
}

// Static resolves configurations from a fixed in-memory set.
// Keys loaded through viper are lowercase, so an id that misses exactly is
// retried in lowercase.
type Static map[string]Record

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, id string) (Record, error) {
	rec, ok := s[id]
	if !ok {
		rec, ok = s[strings.ToLower(id)]
	}
	if !ok {
		return Record{}, NotFound(id)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Chain asks each resolver in turn and returns the first configuration found.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, id string) (Record, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		rec, err := r.Resolve(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
	}
	return Record{}, NotFound(id)
}
