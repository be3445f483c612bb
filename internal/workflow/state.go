package workflow

import "time"

// Node names, in execution order.
const (
	NodeExtract  = "ExtractIntents"
	NodeValidate = "ValidateWithHuman"
	NodeRoute    = "RouteIntents"
)

// State flows through the graph. Categories is never nil, keeps detection
// order, and is not deduplicated.
type State struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
}

// NewState returns the initial state for text.
func NewState(text string) State {
	return State{Text: text, Categories: []string{}}
}

// Escalation request constants sent to the human review application.
const (
	EscalationAppName       = "MultiIntentIdentification_App"
	EscalationTitle         = "Please identify all intents (comma separated)"
	EscalationAppVersion    = 1
	EscalationAppFolderPath = "Shared"
)

// EscalationRequest asks a human reviewer to supply intents for text the
// classifier could not label.
type EscalationRequest struct {
	OriginalText  string            `json:"original_text"`
	AppName       string            `json:"app_name"`
	Title         string            `json:"title"`
	Data          map[string]string `json:"data"`
	AppVersion    int               `json:"app_version"`
	AppFolderPath string            `json:"app_folder_path"`
}

// NewEscalationRequest builds the review request for s.
func NewEscalationRequest(s State) EscalationRequest {
	return EscalationRequest{
		OriginalText: s.Text,
		AppName:      EscalationAppName,
		Title:        EscalationTitle,
		Data: map[string]string{
			"User_Prompt": s.Text,
			"Intents":     joinCategories(s.Categories),
		},
		AppVersion:    EscalationAppVersion,
		AppFolderPath: EscalationAppFolderPath,
	}
}

// Status is the lifecycle position of a run.
type Status string

const (
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome is returned by Start and Resume.
type Outcome struct {
	RunID      string             `json:"run_id"`
	Status     Status             `json:"status"`
	State      State              `json:"state"`
	Escalation *EscalationRequest `json:"escalation,omitempty"`
}

// Checkpoint is the persisted record of a run. A suspended checkpoint holds
// the node to re-enter and the state that node received.
type Checkpoint struct {
	RunID      string             `json:"run_id"`
	Status     Status             `json:"status"`
	Node       string             `json:"node,omitempty"`
	State      State              `json:"state"`
	Escalation *EscalationRequest `json:"escalation,omitempty"`
	Reviewer   string             `json:"reviewer,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (c *Checkpoint) outcome() *Outcome {
	return &Outcome{
		RunID:      c.RunID,
		Status:     c.Status,
		State:      c.State,
		Escalation: c.Escalation,
	}
}
