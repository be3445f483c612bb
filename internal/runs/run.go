// Package runs exposes intent workflow runs over HTTP and persists their
// checkpoints in Postgres so suspended runs survive restarts and can be
// resumed by any instance.
package runs

import (
	"net/url"

	"github.com/JaimeStill/triage/internal/workflow"
)

// StartCommand is the request body for starting a run.
type StartCommand struct {
	Text string `json:"text"`
}

// ReviewerField is the optional body field naming the reviewer when the
// request carries no verified identity.
const ReviewerField = "reviewed_by"

// Filters narrows run listings. Nil fields are ignored.
type Filters struct {
	Status *workflow.Status `json:"status,omitempty"`
}

// Validate rejects unknown statuses.
func (f Filters) Validate() error {
	if f.Status == nil {
		return nil
	}
	switch *f.Status {
	case workflow.StatusSuspended, workflow.StatusCompleted, workflow.StatusFailed:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		status := workflow.Status(s)
		f.Status = &status
	}
	return f
}
