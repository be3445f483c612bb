package api

import (
	"github.com/JaimeStill/triage/internal/runs"
)

// Domain holds the domain systems that comprise the API.
type Domain struct {
	Runs runs.System
}

// NewDomain creates the domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	store := runs.NewStore(runtime.Database.Connection(), runtime.Logger)

	runsSystem, err := runs.New(store, runtime.Workflow, runtime.Logger, runtime.Pagination)
	if err != nil {
		return nil, err
	}

	return &Domain{Runs: runsSystem}, nil
}
