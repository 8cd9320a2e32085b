package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/lathe"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/host"
	"github.com/aretw0/lathe/pkg/ports"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/go-chi/chi/v5"
)

// Server serves a NodeEngine over HTTP.
type Server struct {
	Engine  ports.NodeEngine
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = l
	}
}

// ExecuteRequest is the body of POST /nodes/{id}/execute.
type ExecuteRequest struct {
	Args map[string]any    `json:"args"`
	Save map[string]string `json:"save,omitempty"`
}

// ExecuteResponse is returned by a successful execution.
type ExecuteResponse struct {
	ID         string         `json:"id"`
	NodeID     string         `json:"node_id"`
	Outputs    map[string]any `json:"outputs"`
	DurationMS int64          `json:"duration_ms"`
}

// FieldError is one failing argument.
type FieldError struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.NodeEngine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, Logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/nodes", s.ListNodes)
	r.Get("/nodes/{id}", s.GetNode)
	r.Post("/nodes/{id}/execute", s.ExecuteNode)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>lathe API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lathe-http",
		"version":     lathe.Version,
		"api_version": apiVersion,
	})
}

// ListNodes handles the GET /nodes request.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Inspect())
}

// GetNode handles the GET /nodes/{id} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	spec, err := s.Engine.Spec(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, spec)
}

// ExecuteNode handles the POST /nodes/{id}/execute request.
func (s *Server) ExecuteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	spec, err := s.Engine.Spec(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("execute: invalid request body", "node", id, "error", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	args, err := host.Bind(spec, body.Args)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Engine.Execute(r.Context(), domain.NodeCall{NodeID: id, Args: args})
	if err != nil {
		s.writeError(w, err)
		return
	}
	outputs, err := host.Emit(spec, res.Outputs, body.Save)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ExecuteResponse{
		ID:         res.ID,
		NodeID:     res.NodeID,
		Outputs:    outputs,
		DurationMS: res.Duration.Milliseconds(),
	})
}

// StatusCode maps an engine error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArguments),
		errors.Is(err, domain.ErrNoFrames),
		errors.Is(err, domain.ErrNotEnoughFrames),
		errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	} else {
		s.Logger.Warn("request rejected", "status", status, "error", err)
	}

	resp := ErrorResponse{Error: err.Error()}
	for _, fe := range schema.FieldErrors(err) {
		resp.Fields = append(resp.Fields, FieldError{Key: fe.Key, Reason: fe.Reason})
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
