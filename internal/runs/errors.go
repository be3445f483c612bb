package runs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/triage/internal/workflow"
)

// Domain errors for run operations.
var (
	ErrNotFound       = workflow.ErrRunNotFound
	ErrDuplicate      = errors.New("run already exists")
	ErrInvalidStatus  = errors.New("invalid run status")
	ErrInvalidRequest = errors.New("invalid request")
	ErrBodyTooLarge   = errors.New("request body too large")
)

// MapHTTPStatus maps run domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNotSuspended), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
