package runs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/middleware"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/routes"
)

// Handler provides HTTP endpoints for run operations.
type Handler struct {
	sys         System
	logger      *slog.Logger
	pagination  pagination.Config
	maxBodySize int64
}

// NewHandler creates a Handler. Request bodies larger than maxBodySize are
// rejected.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBodySize int64,
) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "runs"),
		pagination:  pagination,
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group for run endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Start},
			{Method: "GET", Pattern: "/pending", Handler: h.Pending},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/resume", Handler: h.Resume},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a page of runs, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Pending returns a page of runs awaiting review.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Pending(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single run by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	cp, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cp)
}

// Start runs the workflow for the posted text. A run that needs review
// comes back suspended with its escalation request.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var cmd StartCommand
	if err := h.decode(w, r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	outcome, err := h.sys.Start(r.Context(), cmd.Text)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, outcome)
}

// Resume answers a suspended run with the reviewer's payload. The reviewer
// is the verified caller when auth is enabled, otherwise the reviewed_by
// body field.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := h.decode(w, r, &payload); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	reviewer, _ := middleware.Subject(r.Context())
	if named, ok := payload[ReviewerField].(string); ok {
		if reviewer == "" {
			reviewer = named
		}
		delete(payload, ReviewerField)
	}

	outcome, err := h.sys.Resume(r.Context(), id, payload, reviewer)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome)
}

// Delete discards a run.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return "", false
	}
	return id.String(), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return ErrInvalidRequest
	}
	return nil
}
