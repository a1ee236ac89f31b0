package main

import (
	"testing"
	"time"

	"github.com/metalagman/openainodes/internal/llmconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMFlagsRecord(t *testing.T) {
	t.Parallel()

	rec, err := llmFlags{
		model:     " gpt-4o ",
		provider:  "openai",
		apiKeyEnv: "MY_KEY",
		timeout:   45 * time.Second,
	}.record("main")
	require.NoError(t, err)
	assert.Equal(t, llmconfig.Record{
		ID:         "main",
		Model:      "gpt-4o",
		Provider:   "openai",
		Parameters: map[string]any{"api_key_env": "MY_KEY", "timeout": "45s"},
	}, rec)

	params, err := rec.TypedParameters()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, params.Timeout)

	rec, err = llmFlags{model: "whisper-1"}.record("stt")
	require.NoError(t, err)
	assert.Nil(t, rec.Parameters)
}

func TestLLMFlagsRecord_Errors(t *testing.T) {
	t.Parallel()

	_, err := llmFlags{model: "gpt-4o"}.record(" ")
	require.Error(t, err)
	_, err = llmFlags{}.record("x")
	require.Error(t, err)
	_, err = llmFlags{model: "m", provider: "anthropic"}.record("x")
	require.Error(t, err)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	orig := llmconfig.Record{ID: "a", Parameters: map[string]any{"api_key": "sk-secret", "base_url": "http://x"}}
	got := redact(orig)
	assert.Equal(t, "********", got.Parameters["api_key"])
	assert.Equal(t, "http://x", got.Parameters["base_url"])
	assert.Equal(t, "sk-secret", orig.Parameters["api_key"])

	plain := llmconfig.Record{ID: "b"}
	assert.Equal(t, plain, redact(plain))
}
