package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsOutcomes(t *testing.T) {
	t.Parallel()

	r := New()
	r.Start("text_generation")(node.Succeeded(node.Outputs{"generated_text": "x"}))
	r.Start("text_generation")(node.Failed(node.KindConfigNotFound, "nope"))
	r.Start("text_generation")(node.Failed(node.KindConfigNotFound, "nope"))

	assert.InDelta(t, 1, testutil.ToFloat64(r.invocations.WithLabelValues("text_generation", "success", "")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(r.invocations.WithLabelValues("text_generation", "failure", "config_not_found")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(r.inFlight), 1e-9)
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := New()
	r.Start("speech_to_text")(node.Succeeded(nil))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `node_invocations_total{error_kind="",node="speech_to_text",outcome="success"} 1`), string(body))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.Start("x")(node.Succeeded(nil))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
