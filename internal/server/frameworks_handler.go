package server

import (
	"net/http"
	"strings"

	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/redact"
)

func (s *Server) handleFrameworksList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request")
		return
	}
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": s.store.List()})
}

func (s *Server) handleFrameworkGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request")
		return
	}
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/frameworks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "framework not found", "not_found")
		return
	}
	if framework.IsFilePath(id) {
		writeError(w, http.StatusBadRequest, "framework must be an id, not a file path", "validation_error")
		return
	}

	def, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, redact.String(err.Error()), "not_found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}
