package runs

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/triage/internal/workflow"
)

// row feeds checkpointArgs values back through scanCheckpoint the way the
// driver returns workflow_runs columns: JSONB as bytes, NULL as nil.
type row struct {
	values []any
}

func (r row) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}

	for i, d := range dest {
		v := r.values[i]
		switch d := d.(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *workflow.Status:
			*d = workflow.Status(v.(string))
		case *string:
			*d = v.(string)
		case *sql.NullString:
			*d = v.(sql.NullString)
		case *[]byte:
			if v == nil {
				*d = nil
				continue
			}
			*d = []byte(v.(string))
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func TestCheckpointRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	state := workflow.NewState("hello")
	escalation := workflow.NewEscalationRequest(state)

	tests := []struct {
		name string
		cp   workflow.Checkpoint
	}{
		{
			name: "suspended with escalation",
			cp: workflow.Checkpoint{
				Status:     workflow.StatusSuspended,
				Node:       "validate",
				State:      state,
				Escalation: &escalation,
			},
		},
		{
			name: "completed after review",
			cp: workflow.Checkpoint{
				Status:     workflow.StatusCompleted,
				State:      workflow.State{Text: "hello", Categories: []string{"AssetRequest", "LeaveRequest"}},
				Escalation: &escalation,
				Reviewer:   "jdoe",
			},
		},
		{
			name: "failed without categories",
			cp: workflow.Checkpoint{
				Status: workflow.StatusFailed,
				State:  workflow.State{Text: "I need leave"},
				Error:  "model offline",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			tt.cp.RunID = id.String()
			tt.cp.CreatedAt = created
			tt.cp.UpdatedAt = created.Add(time.Minute)

			args, err := checkpointArgs(id, tt.cp)
			require.NoError(t, err)

			got, err := scanCheckpoint(row{values: args})
			require.NoError(t, err)

			want := tt.cp
			if want.State.Categories == nil {
				want.State.Categories = []string{}
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestCheckpointArgsNullColumns(t *testing.T) {
	id := uuid.New()
	args, err := checkpointArgs(id, workflow.Checkpoint{
		RunID:  id.String(),
		Status: workflow.StatusCompleted,
		State:  workflow.State{Text: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "[]", args[colCategories])
	assert.Nil(t, args[colEscalation])
	assert.False(t, args[colNode].(sql.NullString).Valid)
	assert.False(t, args[colReviewer].(sql.NullString).Valid)
	assert.Equal(t, "x", args[colText])
}

func TestScanCheckpointRejectsBadJSON(t *testing.T) {
	id := uuid.New()
	args, err := checkpointArgs(id, workflow.Checkpoint{RunID: id.String(), Status: workflow.StatusCompleted})
	require.NoError(t, err)

	args[colCategories] = `{"not":"a list"}`
	_, err = scanCheckpoint(row{values: args})
	assert.ErrorContains(t, err, "decode categories")

	args[colCategories] = `[]`
	args[colEscalation] = `[1,2]`
	_, err = scanCheckpoint(row{values: args})
	assert.ErrorContains(t, err, "decode escalation")
}
