package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
)

type UseCase struct {
	tasks  repository.TaskStore
	logger *zap.Logger
	now    func() time.Time
}

func New(tasks repository.TaskStore, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
}

// ListTasks returns every task owned by owner in store order.
func (uc *UseCase) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	tasks, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, uc.storeError(ctx, "list", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, owner, title, description string) (*domain.Task, error) {
	task, err := domain.NewTask(owner, title, description, uc.now())
	if err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, uc.storeError(ctx, "create", err)
	}

	logger.WithRequestID(ctx, uc.logger).Debug("task created",
		zap.String("task_id", created.ID),
		zap.String("owner", owner))
	return created, nil
}

// UpdateTask applies patch to the task if owner owns it. A missing task is
// reported before an ownership mismatch.
func (uc *UseCase) UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	existing, err := uc.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return existing, nil
	}

	updated, err := uc.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, uc.storeError(ctx, "update", err)
	}
	return updated, nil
}

// DeleteTask permanently removes the task and returns its id.
func (uc *UseCase) DeleteTask(ctx context.Context, owner, id string) (string, error) {
	if _, err := uc.owned(ctx, owner, id); err != nil {
		return "", err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return "", uc.storeError(ctx, "delete", err)
	}

	logger.WithRequestID(ctx, uc.logger).Debug("task deleted",
		zap.String("task_id", id),
		zap.String("owner", owner))
	return id, nil
}

func (uc *UseCase) owned(ctx context.Context, owner, id string) (*domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}
	existing, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, uc.storeError(ctx, "get", err)
	}
	if !existing.OwnedBy(owner) {
		logger.WithRequestID(ctx, uc.logger).Warn("task ownership mismatch",
			zap.String("task_id", id),
			zap.String("caller", owner))
		return nil, domain.ErrNotOwner
	}
	return existing, nil
}

// storeError passes domain errors through and classifies everything else as internal.
func (uc *UseCase) storeError(ctx context.Context, op string, err error) error {
	if domain.CodeOf(err) != domain.ErrCodeInternal {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Error("task store failure", zap.String("operation", op), zap.Error(err))
	return domain.WrapError(domain.ErrCodeInternal, "task store failure", err)
}
