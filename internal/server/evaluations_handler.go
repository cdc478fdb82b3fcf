package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/notelens-ai/notelens/internal/audit"
	"github.com/notelens-ai/notelens/internal/evaluator"
	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/judge"
	"github.com/notelens-ai/notelens/internal/pii"
	"github.com/notelens-ai/notelens/internal/redact"
)

type evaluationRequest struct {
	Note              string            `json:"note"`
	Framework         string            `json:"framework"`
	MeetingType       string            `json:"meeting_type"`
	MaskPII           bool              `json:"mask_pii"`
	Verbose           bool              `json:"verbose"`
	CustomInstruction string            `json:"custom_instruction"`
	Metadata          map[string]string `json:"metadata"`
}

type evaluationResponse struct {
	EvaluationID string      `json:"evaluation_id"`
	Report       *gap.Report `json:"report"`
}

func (s *Server) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request")
		return
	}

	ws, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	var reqBody evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request")
		return
	}

	frameworkRef := reqBody.Framework
	if frameworkRef == "" {
		frameworkRef = ws.DefaultFramework
	}
	if frameworkRef == "" {
		writeError(w, http.StatusBadRequest, "framework is required", "validation_error")
		return
	}
	// API callers reference frameworks by id only; file paths stay a CLI
	// affordance.
	if framework.IsFilePath(frameworkRef) {
		writeError(w, http.StatusBadRequest, "framework must be an id, not a file path", "validation_error")
		return
	}

	def, err := s.store.Get(frameworkRef)
	if err != nil {
		writeError(w, http.StatusBadRequest, redact.String(err.Error()), "validation_error")
		return
	}

	providerName := ws.Provider
	if providerName == "" {
		providerName = s.defaultProvider
	}
	ev, ok := s.evaluators[providerName]
	if !ok {
		s.log.Error("no evaluator for provider", "provider", providerName, "workspace", ws.ID)
		writeError(w, http.StatusInternalServerError, "misconfiguration: unknown provider for workspace", "configuration_error")
		return
	}

	start := time.Now()
	report, err := ev.Evaluate(r.Context(), evaluator.Request{
		Note:              reqBody.Note,
		Definition:        def,
		MeetingType:       reqBody.MeetingType,
		MaskPII:           reqBody.MaskPII,
		Verbose:           reqBody.Verbose,
		CustomInstruction: reqBody.CustomInstruction,
		Metadata:          reqBody.Metadata,
	})
	if err != nil {
		s.writeEvaluationError(w, requestID, err)
		return
	}
	duration := time.Since(start)

	event := audit.NewEvent(report, ws.ID, duration)
	s.audit.Emit(r.Context(), event)
	s.telemetry.RecordEvaluation(
		report.FrameworkID,
		string(report.OverallRating),
		report.Passed,
		report.Stats.TotalElements-report.Stats.PresentCount,
		float64(duration.Milliseconds()),
	)

	writeJSON(w, http.StatusOK, evaluationResponse{
		EvaluationID: event.EvaluationID,
		Report:       report,
	})
}

// writeEvaluationError maps engine error kinds onto HTTP statuses.
func (s *Server) writeEvaluationError(w http.ResponseWriter, requestID string, err error) {
	var (
		ve *framework.ValidationError
		je *judge.Error
		pe *pii.Error
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, redact.String(ve.Error()), "validation_error")
	case errors.As(err, &je):
		s.log.Error("judgment failed", "request_id", requestID, "error", redact.String(je.Error()))
		writeError(w, http.StatusBadGateway, "judgment failed; evaluation aborted", "judgment_error")
	case errors.As(err, &pe):
		s.log.Error("masking failed", "request_id", requestID, "error", redact.String(pe.Error()))
		writeError(w, http.StatusInternalServerError, "pii masking failed; evaluation aborted", "masking_error")
	default:
		s.log.Error("evaluation failed", "request_id", requestID, "error", redact.String(err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}
