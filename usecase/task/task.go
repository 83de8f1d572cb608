package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.Title == "" {
		return nil, domain.ErrInvalidPayload
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Type == "" {
		task.Type = domain.TypeSimple
	}
	return uc.tasks.Create(ctx, task)
}

func (uc *UseCase) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SetCompleted toggles the only state transition a task has. Completing
// stamps CompletedAt; reopening clears it so the task leaves the
// completed-day view and re-enters normal date resolution.
func (uc *UseCase) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Completed = completed
	if completed {
		now := time.Now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	return uc.tasks.Delete(ctx, id)
}
