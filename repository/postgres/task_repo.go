package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, user_id, title, description, start_date, due_date, due_time,
	completed, completed_at, priority, type, sort_order, tags, project,
	shared_by_me, shared_with_me, group_id, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR user_id = $1)
	  AND ($2::boolean IS NULL OR completed = $2)
	  AND ($3 = '' OR project = $3)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID, filter.Completed, filter.Project, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, start_date, due_date, due_time,
		completed, completed_at, priority, type, sort_order, tags, project,
		shared_by_me, shared_with_me, group_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		dayArg(task.StartDate),
		dayArg(task.DueDate),
		task.DueTime,
		task.Completed,
		task.CompletedAt,
		string(task.Priority),
		string(task.Type),
		task.Order,
		task.Tags,
		task.Project,
		task.SharedByMe,
		task.SharedWithMe,
		nullString(task.GroupID),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		start_date = $4,
		due_date = $5,
		due_time = $6,
		completed = $7,
		completed_at = $8,
		priority = $9,
		type = $10,
		sort_order = $11,
		tags = $12,
		project = $13,
		shared_by_me = $14,
		shared_with_me = $15,
		group_id = $16,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		dayArg(task.StartDate),
		dayArg(task.DueDate),
		task.DueTime,
		task.Completed,
		task.CompletedAt,
		string(task.Priority),
		string(task.Type),
		task.Order,
		task.Tags,
		task.Project,
		task.SharedByMe,
		task.SharedWithMe,
		nullString(task.GroupID),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
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

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		priority string
		taskType string
		groupID  *string
		start    *time.Time
		due      *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&start,
		&due,
		&task.DueTime,
		&task.Completed,
		&task.CompletedAt,
		&priority,
		&taskType,
		&task.Order,
		&task.Tags,
		&task.Project,
		&task.SharedByMe,
		&task.SharedWithMe,
		&groupID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.StartDate = start
	task.DueDate = due
	task.Priority = domain.Priority(priority)
	task.Type = domain.TaskType(taskType)
	if groupID != nil {
		task.GroupID = *groupID
	}

	return &task, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
