package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore returns a Postgres-backed implementation of TaskStore.
func NewTaskStore(pool *pgxpool.Pool) repository.TaskStore {
	return &taskStore{pool: pool}
}

func (r *taskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT id, owner, title, description, created_at
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskStore) ListByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	const query = `
	SELECT id, owner, title, description, created_at
	FROM tasks
	WHERE owner = $1
	`
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, owner, title, description, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING created_at
	`

	created := *task
	created.ID = uuid.NewString()

	if err := r.pool.QueryRow(ctx, query,
		created.ID,
		created.Owner,
		created.Title,
		created.Description,
		nullTime(created.CreatedAt),
	).Scan(&created.CreatedAt); err != nil {
		return nil, err
	}

	created.CreatedAt = created.CreatedAt.UTC()
	return &created, nil
}

func (r *taskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET title = COALESCE($2, title),
		description = COALESCE($3, description)
	WHERE id = $1
	RETURNING id, owner, title, description, created_at
	`

	row := r.pool.QueryRow(ctx, query, id, patch.Title, patch.Description)
	return scanTask(row)
}

func (r *taskStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task

	if err := row.Scan(
		&task.ID,
		&task.Owner,
		&task.Title,
		&task.Description,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.CreatedAt = task.CreatedAt.UTC()
	return &task, nil
}
