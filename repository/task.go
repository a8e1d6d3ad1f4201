package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskStore persists tasks in a single collection. Implementations translate
// their driver's not-found condition into domain.ErrTaskNotFound, including
// ids the backend could never have issued.
type TaskStore interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
