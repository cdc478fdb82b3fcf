// Package server exposes the evaluation engine over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/notelens-ai/notelens/internal/audit"
	"github.com/notelens-ai/notelens/internal/auth"
	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/evaluator"
	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/logging"
	"github.com/notelens-ai/notelens/internal/telemetry"
)

// Server wraps the HTTP components of notelens.
type Server struct {
	mux             *http.ServeMux
	cfg             *config.Config
	auth            *auth.Auth
	store           *framework.Store
	evaluators      map[string]*evaluator.Evaluator // provider name -> evaluator
	defaultProvider string
	audit           *audit.Emitter
	telemetry       *telemetry.Provider
	log             *slog.Logger
}

// Options carries the wired dependencies for a Server.
type Options struct {
	Auth            *auth.Auth
	Store           *framework.Store
	Evaluators      map[string]*evaluator.Evaluator
	DefaultProvider string
	Audit           *audit.Emitter
	Telemetry       *telemetry.Provider
}

// New creates a server with all routes registered.
func New(cfg *config.Config, opts Options) *Server {
	s := &Server{
		mux:             http.NewServeMux(),
		cfg:             cfg,
		auth:            opts.Auth,
		store:           opts.Store,
		evaluators:      opts.Evaluators,
		defaultProvider: opts.DefaultProvider,
		audit:           opts.Audit,
		telemetry:       opts.Telemetry,
		log:             logging.New("server"),
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/v1/evaluations", s.handleEvaluations)
	s.mux.HandleFunc("/v1/frameworks", s.handleFrameworksList)
	s.mux.HandleFunc("/v1/frameworks/", s.handleFrameworkGet)

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("notelens listening", "addr", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// authenticate resolves the bearer API key to a workspace, writing the error
// response itself on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.Workspace, bool) {
	apiKey, ok := parseBearerToken(r.Header.Get("Authorization"))
	if !ok || apiKey == "" {
		writeError(w, http.StatusUnauthorized, "invalid or missing API key", "authentication_error")
		return auth.Workspace{}, false
	}
	ws, ok := s.auth.Lookup(apiKey)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid API key", "authentication_error")
		return auth.Workspace{}, false
	}
	return ws, true
}

// parseBearerToken extracts the token from an Authorization: Bearer header.
func parseBearerToken(h string) (string, bool) {
	if h == "" {
		return "", false
	}
	parts := strings.Fields(h)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Message: message, Kind: kind}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
