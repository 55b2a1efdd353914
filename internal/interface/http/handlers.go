package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/coursepath/planner/internal/application/command"
	"github.com/coursepath/planner/internal/application/query"
	"github.com/coursepath/planner/internal/domain/counselor"
	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
	"github.com/coursepath/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Course Planner API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":     "/health",
			"plans":      "/api/v1/plans",
			"counselors": "/api/v1/counselors",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONErrorWithDetails(w, r, http.StatusServiceUnavailable, "not_ready", "Service is not ready", status.Message)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// AssemblePlanResponse is the body returned by POST /api/v1/plans.
type AssemblePlanResponse struct {
	SessionID string           `json:"session_id"`
	Username  string           `json:"username"`
	Track     string           `json:"track"`
	Grid      map[int][]string `json:"grid"`
	Names     []plan.Record    `json:"names"`
	Report    plan.Report      `json:"report"`

	// PersistError is set when the plan was assembled but not stored.
	PersistError string `json:"persist_error,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
}

// handleAssemblePlan handles POST /api/v1/plans. Open slots take the random
// default: the HTTP surface has nobody to prompt.
func (s *Server) handleAssemblePlan(w http.ResponseWriter, r *http.Request) {
	if s.deps.AssemblePlan == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_configured", "Plan assembly is not configured")
		return
	}

	var cmd command.AssemblePlanCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.Prompter = nil

	result, err := s.deps.AssemblePlan.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := AssemblePlanResponse{
		SessionID:  result.SessionID,
		Username:   result.Username,
		Track:      result.Track,
		Grid:       result.Grid,
		Names:      result.Names,
		Report:     result.Report,
		DurationMS: result.Duration.Milliseconds(),
	}
	log := logger.FromContext(r.Context()).With(
		logger.SessionID(result.SessionID),
		logger.Username(result.Username),
		logger.Track(result.Track),
		logger.Grade(cmd.Grade),
	)
	if result.PersistError != nil {
		resp.PersistError = result.PersistError.Error()
		log.Warn("plan assembled but not stored", logger.Err(result.PersistError))
	} else {
		log.Debug("plan assembled", logger.Millis("duration_ms", result.Duration))
	}

	writeJSON(w, r, http.StatusCreated, resp)
}

// handleGetPlan handles GET /api/v1/plans/{username}.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPlan == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_configured", "Plan lookup is not configured")
		return
	}

	view, err := s.deps.GetPlan.Handle(r.Context(), query.GetPlanQuery{
		Username: chi.URLParam(r, "username"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// handleGetPlanTable handles GET /api/v1/plans/{username}/table.
func (s *Server) handleGetPlanTable(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPlanTable == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_configured", "Plan lookup is not configured")
		return
	}

	rows, err := s.deps.GetPlanTable.Handle(r.Context(), query.GetPlanTableQuery{
		Username: chi.URLParam(r, "username"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"rows": rows})
}

// replaceCourseRequest is the body of PUT /api/v1/plans/{username}/courses/{code}.
type replaceCourseRequest struct {
	Replacement string `json:"replacement"`
}

// handleReplaceCourse handles PUT /api/v1/plans/{username}/courses/{code}.
func (s *Server) handleReplaceCourse(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReplaceCourse == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_configured", "Course replacement is not configured")
		return
	}

	var req replaceCourseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ReplaceCourse.Handle(r.Context(), command.ReplaceCourseCommand{
		Username:    chi.URLParam(r, "username"),
		Current:     chi.URLParam(r, "code"),
		Replacement: req.Replacement,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("course replaced",
		logger.Username(result.Username),
		logger.Grade(result.Grade),
		logger.CourseCode(chi.URLParam(r, "code")),
	)
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNSELOR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleFindCounselor handles GET /api/v1/counselors?last_name=...
func (s *Server) handleFindCounselor(w http.ResponseWriter, r *http.Request) {
	lastName := r.URL.Query().Get("last_name")

	c, err := s.deps.Counselors.Find(lastName)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		LastName string `json:"last_name"`
		counselor.Counselor
	}{LastName: strings.TrimSpace(lastName), Counselor: c})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body is required")
			return false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidReplacement):
		writeJSONErrorWithDetails(w, r, http.StatusUnprocessableEntity, "invalid_replacement", "Replacement not allowed", err.Error())
	case errors.Is(err, shared.ErrInvalidRecord):
		s.logInternal(r, err)
		writeJSONError(w, r, http.StatusInternalServerError, "corrupt_plan", "Stored plan could not be read")
	case shared.IsNotFound(err):
		writeJSONErrorWithDetails(w, r, http.StatusNotFound, "not_found", "Resource not found", err.Error())
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "validation_error", "Request failed validation", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, r, http.StatusGatewayTimeout, "timeout", "Request timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		w.WriteHeader(499)
	case shared.IsExternalService(err):
		writeJSONError(w, r, http.StatusBadGateway, "upstream_error", "Interest service unavailable")
	default:
		s.logInternal(r, err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func (s *Server) logInternal(r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed",
		logger.String("path", r.URL.Path),
		logger.Err(err),
	)
}
