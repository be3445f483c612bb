package runs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/triage/internal/workflow"
	"github.com/JaimeStill/triage/pkg/pagination"
)

// System defines the public contract for run operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	Start(ctx context.Context, text string) (*workflow.Outcome, error)
	Resume(ctx context.Context, id string, payload any, reviewer string) (*workflow.Outcome, error)
	Find(ctx context.Context, id string) (*workflow.Checkpoint, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[workflow.Checkpoint], error)
	Pending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[workflow.Checkpoint], error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	store      Store
	runner     *workflow.Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the run System over store. The workflow runner checkpoints
// into the same store.
func New(
	store Store,
	rt *workflow.Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) (System, error) {
	runner, err := workflow.NewRunner(rt, store)
	if err != nil {
		return nil, err
	}

	return &service{
		store:      store,
		runner:     runner,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}, nil
}

func (s *service) Handler(maxBodySize int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxBodySize)
}

func (s *service) Start(ctx context.Context, text string) (*workflow.Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	return s.runner.Start(ctx, text)
}

func (s *service) Resume(ctx context.Context, id string, payload any, reviewer string) (*workflow.Outcome, error) {
	var opts []workflow.ResumeOption
	if reviewer != "" {
		opts = append(opts, workflow.WithReviewer(reviewer))
	}
	return s.runner.Resume(ctx, id, payload, opts...)
}

func (s *service) Find(ctx context.Context, id string) (*workflow.Checkpoint, error) {
	cp, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *service) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[workflow.Checkpoint], error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	page.Normalize(s.pagination)
	return s.store.List(ctx, page, filters)
}

func (s *service) Pending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[workflow.Checkpoint], error) {
	status := workflow.StatusSuspended
	return s.List(ctx, page, Filters{Status: &status})
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.runner.Discard(ctx, id)
}
