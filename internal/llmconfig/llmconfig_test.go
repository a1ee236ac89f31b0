package llmconfig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTypedParameters(t *testing.T) {
	t.Parallel()

	rec := Record{
		ID:    "cfg1",
		Model: "gpt-4o",
		Parameters: map[string]any{
			"api_key":  "sk-test",
			"base_url": "http://localhost:8080/v1",
			"timeout":  "30s",
		},
	}

	params, err := rec.TypedParameters()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", params.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", params.BaseURL)
	assert.Equal(t, 30*time.Second, params.Timeout)
}

func TestRecordTypedParameters_MissingParameters(t *testing.T) {
	t.Parallel()

	_, err := Record{ID: "cfg1", Model: "gpt-4o"}.TypedParameters()
	require.ErrorIs(t, err, ErrNoParameters)
}

func TestRecordTypedParameters_UndecodableParameters(t *testing.T) {
	t.Parallel()

	rec := Record{Parameters: map[string]any{"timeout": "soon"}}
	_, err := rec.TypedParameters()
	require.ErrorIs(t, err, ErrNoParameters)
}

func TestStaticResolve(t *testing.T) {
	t.Parallel()

	s := Static{"cfg1": {Model: "gpt-4o"}}

	rec, err := s.Resolve(context.Background(), "cfg1")
	require.NoError(t, err)
	assert.Equal(t, "cfg1", rec.ID)
	assert.Equal(t, "gpt-4o", rec.Model)

	_, err = s.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestStaticResolve_FallsBackToLowercaseID(t *testing.T) {
	t.Parallel()

	s := Static{"mygpt": {ID: "mygpt", Model: "gpt-4o"}}

	rec, err := s.Resolve(context.Background(), "MyGPT")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", rec.Model)

	_, err = s.Resolve(context.Background(), "OtherGPT")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "OtherGPT")
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string) (Record, error) {
	return Record{}, f.err
}

func TestChainResolve(t *testing.T) {
	t.Parallel()

	chain := Chain{
		Static{"a": {Model: "first"}},
		nil,
		Static{"a": {Model: "shadowed"}, "b": {Model: "second"}},
	}

	rec, err := chain.Resolve(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Model)

	rec, err = chain.Resolve(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Model)

	_, err = chain.Resolve(context.Background(), "c")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChainResolve_StopsOnHardError(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is locked")
	chain := Chain{failingResolver{err: boom}, Static{"a": {Model: "m"}}}

	_, err := chain.Resolve(context.Background(), "a")
	require.ErrorIs(t, err, boom)
}
