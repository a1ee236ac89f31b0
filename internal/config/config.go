// Package config provides configuration loading and management for openainodes.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/metalagman/openainodes/internal/llmconfig"
)

// DefaultDir is the per-project state directory.
const DefaultDir = ".openainodes"

// Config is the root configuration.
type Config struct {
	Database  string               `json:"database,omitempty"  mapstructure:"database"`
	LLMs      map[string]LLMConfig `json:"llms,omitempty"      mapstructure:"llms"`
	HTTP      HTTPConfig           `json:"http,omitempty"      mapstructure:"http"`
	Retention RetentionConfig      `json:"retention,omitempty" mapstructure:"retention"`
}

// RetentionConfig bounds the stored invocation history. Zero values keep everything.
type RetentionConfig struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// LLMConfig is a model configuration declared in the config file.
type LLMConfig struct {
	Model      string         `json:"llm_name"             mapstructure:"llm_name"`
	Provider   string         `json:"provider,omitempty"   mapstructure:"provider"`
	Parameters map[string]any `json:"parameters,omitempty" mapstructure:"parameters"`
}

// HTTPConfig configures the HTTP host.
type HTTPConfig struct {
	Addr string `json:"addr,omitempty" mapstructure:"addr"`
}

// DatabasePath returns the SQLite path, resolved against root when relative.
func (c Config) DatabasePath(root string) string {
	path := c.Database
	if path == "" {
		path = filepath.Join(DefaultDir, "openainodes.db")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	if c.HTTP.Addr == "" {
		return "127.0.0.1:8080"
	}
	return c.HTTP.Addr
}

// Resolver returns the model configurations declared in the file.
func (c Config) Resolver() llmconfig.Static {
	out := make(llmconfig.Static, len(c.LLMs))
	for id, llm := range c.LLMs {
		provider := llm.Provider
		if provider == "" {
			provider = llmconfig.DefaultProvider
		}
		out[id] = llmconfig.Record{
			ID:         id,
			Model:      llm.Model,
			Provider:   provider,
			Parameters: llm.Parameters,
		}
	}
	return out
}

// Validate checks semantic constraints the schema cannot express.
func (c Config) Validate() error {
	for id, llm := range c.LLMs {
		if llm.Model == "" {
			return fmt.Errorf("llms.%s.llm_name is required", id)
		}
	}
	if c.Retention.KeepLast < 0 || c.Retention.KeepDays < 0 {
		return fmt.Errorf("retention values must be >= 0")
	}
	return nil
}
