// Package httphost serves the node registry over HTTP.
package httphost

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/metalagman/openainodes/internal/host"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/nodes"
	"github.com/metalagman/openainodes/internal/run"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps the execute request body.
const maxBodyBytes = 1 << 20

// Server provides the HTTP handlers over a node registry.
type Server struct {
	invoker host.Invoker
}

// NewServer creates a new HTTP host. Without metrics /metrics answers 404;
// without history /invocations does.
func NewServer(invoker host.Invoker) (*Server, error) {
	if invoker.Registry == nil {
		return nil, errors.New("node registry is required")
	}
	return &Server{invoker: invoker}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Routes returns the router for the HTTP host.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /nodes", s.handleList)
	mux.HandleFunc("GET /nodes/{name}", s.handleDescribe)
	mux.HandleFunc("POST /nodes/{name}/execute", s.handleExecute)
	mux.HandleFunc("GET /invocations/{id}", s.handleInvocation)
	mux.Handle("GET /metrics", s.invoker.Metrics.Handler())
	return mux
}

// Pack is the node pack summary returned by GET /nodes.
type Pack struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Nodes       []node.Descriptor `json:"nodes"`
}

// NodeDetail is returned by GET /nodes/{name}.
type NodeDetail struct {
	node.Descriptor
	Schema map[string]any `json:"schema"`
}

func (s *Server) pack() Pack {
	return Pack{
		Name:        nodes.PackName,
		Version:     nodes.PackVersion,
		Description: nodes.PackDescription,
		Tags:        nodes.PackTags,
		Nodes:       s.invoker.Registry.Descriptors(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.pack()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pack())
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	n, ok := s.invoker.Registry.Lookup(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node: "+r.PathValue("name"))
		return
	}
	desc := n.Descriptor()
	writeJSON(w, http.StatusOK, NodeDetail{Descriptor: desc, Schema: desc.Schema()})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.invoker.Registry.Lookup(name); !ok {
		writeError(w, http.StatusNotFound, "unknown node: "+name)
		return
	}

	in := node.Inputs{}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	normalizeNumbers(in)

	res, err := s.invoker.Invoke(r.Context(), name, in)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("X-Invocation-ID", res.InvocationID)
	writeJSON(w, http.StatusOK, res.Map())
}

// InvocationDetail is returned by GET /invocations/{id}.
type InvocationDetail struct {
	run.Invocation
	Events []run.Event `json:"events"`
}

func (s *Server) handleInvocation(w http.ResponseWriter, r *http.Request) {
	history := s.invoker.History
	if history == nil {
		writeError(w, http.StatusNotFound, "invocation history is disabled")
		return
	}
	id := r.PathValue("id")
	inv, err := history.Get(r.Context(), id)
	if errors.Is(err, run.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	events, err := history.Events(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, InvocationDetail{Invocation: inv, Events: events})
}

// normalizeNumbers turns json.Number values into int64 when integral, float64 otherwise.
func normalizeNumbers(in node.Inputs) {
	for k, v := range in {
		num, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := num.Int64(); err == nil {
			in[k] = i
			continue
		}
		if f, err := num.Float64(); err == nil {
			in[k] = f
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
