package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/workflow"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

// Store is a CheckpointStore that can also page through runs.
type Store interface {
	workflow.CheckpointStore
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[workflow.Checkpoint], error)
}

const upsertRun = `
	INSERT INTO workflow_runs(id, status, node, text, categories, escalation, reviewer, error, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		node = EXCLUDED.node,
		categories = EXCLUDED.categories,
		escalation = EXCLUDED.escalation,
		reviewer = EXCLUDED.reviewer,
		error = EXCLUDED.error,
		updated_at = EXCLUDED.updated_at`

const resolveRun = `
	UPDATE workflow_runs SET
		status = $2,
		node = $3,
		categories = $4,
		escalation = $5,
		reviewer = $6,
		error = $7,
		updated_at = $8
	WHERE id = $1 AND status = 'suspended'`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed Store over the workflow_runs table.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "runs.store"),
	}
}

func (r *repo) Save(ctx context.Context, cp workflow.Checkpoint) error {
	id, err := uuid.Parse(cp.RunID)
	if err != nil {
		return fmt.Errorf("%w: run id %q", ErrInvalidRequest, cp.RunID)
	}

	args, err := checkpointArgs(id, cp)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, upsertRun, args...); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.DebugContext(ctx, "checkpoint saved", "run_id", cp.RunID, "status", cp.Status)
	return nil
}

func (r *repo) Resolve(ctx context.Context, cp workflow.Checkpoint) error {
	id, err := uuid.Parse(cp.RunID)
	if err != nil {
		return ErrNotFound
	}

	args, err := checkpointArgs(id, cp)
	if err != nil {
		return err
	}

	err = repository.ExecExpectOne(ctx, r.db, resolveRun,
		args[colID], args[colStatus], args[colNode], args[colCategories],
		args[colEscalation], args[colReviewer], args[colError], args[colUpdatedAt],
	)
	if errors.Is(err, sql.ErrNoRows) {
		if _, loadErr := r.Load(ctx, cp.RunID); loadErr != nil {
			return loadErr
		}
		return fmt.Errorf("%w: %s", workflow.ErrNotSuspended, cp.RunID)
	}
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.DebugContext(ctx, "checkpoint resolved", "run_id", cp.RunID, "status", cp.Status)
	return nil
}

func (r *repo) Load(ctx context.Context, runID string) (workflow.Checkpoint, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return workflow.Checkpoint{}, ErrNotFound
	}

	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	cp, err := repository.QueryOne(ctx, r.db, q, args, scanCheckpoint)
	if err != nil {
		return workflow.Checkpoint{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return cp, nil
}

func (r *repo) Delete(ctx context.Context, runID string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return ErrNotFound
	}

	err = repository.ExecExpectOne(ctx, r.db, "DELETE FROM workflow_runs WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "run deleted", "run_id", runID)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[workflow.Checkpoint], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Text", "Reviewer")
	query.WhereEquals(qb, "Status", filters.Status)

	if sort := query.ParseSortFields(page.Sort, projection); len(sort) > 0 {
		qb.OrderBy(sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	cps, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCheckpoint)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(cps, total, page.Page, page.PageSize)
	return &result, nil
}
