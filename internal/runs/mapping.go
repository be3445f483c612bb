package runs

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/workflow"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "workflow_runs", "r").
	Project("id", "ID").
	Project("status", "Status").
	Project("node", "Node").
	Project("text", "Text").
	Project("categories", "Categories").
	Project("escalation", "Escalation").
	Project("reviewer", "Reviewer").
	Project("error", "Error").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func scanCheckpoint(s repository.Scanner) (workflow.Checkpoint, error) {
	var (
		cp         workflow.Checkpoint
		id         uuid.UUID
		categories []byte
		escalation []byte
		node       sql.NullString
		reviewer   sql.NullString
		errText    sql.NullString
	)

	err := s.Scan(
		&id,
		&cp.Status,
		&node,
		&cp.State.Text,
		&categories,
		&escalation,
		&reviewer,
		&errText,
		&cp.CreatedAt,
		&cp.UpdatedAt,
	)
	if err != nil {
		return cp, err
	}

	cp.RunID = id.String()
	cp.Node = node.String
	cp.Reviewer = reviewer.String
	cp.Error = errText.String

	cp.State.Categories = []string{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &cp.State.Categories); err != nil {
			return cp, fmt.Errorf("decode categories: %w", err)
		}
	}

	if len(escalation) > 0 {
		var req workflow.EscalationRequest
		if err := json.Unmarshal(escalation, &req); err != nil {
			return cp, fmt.Errorf("decode escalation: %w", err)
		}
		cp.Escalation = &req
	}

	return cp, nil
}

// Positions of the checkpointArgs values.
const (
	colID = iota
	colStatus
	colNode
	colText
	colCategories
	colEscalation
	colReviewer
	colError
	colCreatedAt
	colUpdatedAt
)

// checkpointArgs returns the insert arguments for cp in column order.
func checkpointArgs(id uuid.UUID, cp workflow.Checkpoint) ([]any, error) {
	categories := cp.State.Categories
	if categories == nil {
		categories = []string{}
	}
	cats, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}

	var esc any
	if cp.Escalation != nil {
		data, err := json.Marshal(cp.Escalation)
		if err != nil {
			return nil, fmt.Errorf("encode escalation: %w", err)
		}
		esc = string(data)
	}

	return []any{
		id,
		string(cp.Status),
		nullString(cp.Node),
		cp.State.Text,
		string(cats),
		esc,
		nullString(cp.Reviewer),
		nullString(cp.Error),
		cp.CreatedAt,
		cp.UpdatedAt,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
