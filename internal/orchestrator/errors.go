package orchestrator

import "errors"

var (
	// ErrConfigMissing indicates a required connection setting is absent.
	ErrConfigMissing = errors.New("orchestrator configuration missing")
	// ErrHTTPCallFailed indicates a transport failure or unexpected status.
	ErrHTTPCallFailed = errors.New("orchestrator call failed")
)
