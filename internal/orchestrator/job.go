package orchestrator

// JobState is the platform-reported state of a job.
type JobState string

const (
	StatePending     JobState = "Pending"
	StateRunning     JobState = "Running"
	StateSuccessful  JobState = "Successful"
	StateFaulted     JobState = "Faulted"
	StateStopped     JobState = "Stopped"
	StateStopping    JobState = "Stopping"
	StateTerminating JobState = "Terminating"
	StateSuspended   JobState = "Suspended"
	StateResumed     JobState = "Resumed"
)

// Terminal reports whether the job has stopped changing state.
func (s JobState) Terminal() bool {
	switch s {
	case StateSuccessful, StateFaulted, StateStopped:
		return true
	default:
		return false
	}
}

// Job is a single execution of a process. OutputArguments is a JSON string
// present once the job produces output.
type Job struct {
	ID              int64    `json:"Id"`
	Key             string   `json:"Key"`
	State           JobState `json:"State"`
	OutputArguments *string  `json:"OutputArguments,omitempty"`
}

// Process is a deployable automation package (a platform release).
type Process struct {
	Name string `json:"Name"`
	Key  string `json:"Key"`
}

type startJobsRequest struct {
	StartInfo startInfo `json:"startInfo"`
}

type startInfo struct {
	ReleaseKey     string `json:"ReleaseKey"`
	Strategy       string `json:"Strategy"`
	InputArguments string `json:"InputArguments"`
}

type odataList[T any] struct {
	Value []T `json:"value"`
}
