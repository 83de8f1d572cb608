package repository

import (
	"context"
	"time"

	"github.com/taskline/backend/domain"
)

type TaskFilter struct {
	UserID    string
	Completed *bool
	Project   string
	Limit     int
	Offset    int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	GetByID(ctx context.Context, id string) (*domain.RecurringTemplate, error)
	List(ctx context.Context, userID string, activeOnly bool) ([]domain.RecurringTemplate, error)
	ListActive(ctx context.Context) ([]domain.RecurringTemplate, error)
	Create(ctx context.Context, tpl *domain.RecurringTemplate) (*domain.RecurringTemplate, error)
	Update(ctx context.Context, tpl *domain.RecurringTemplate) error
	Delete(ctx context.Context, id string) error
}

type InstanceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.RecurringInstance, error)
	ListByTemplate(ctx context.Context, templateID string, from, to time.Time) ([]domain.RecurringInstance, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]domain.RecurringInstance, error)
	// Upsert inserts or refreshes an instance keyed on (template_id,
	// instance_date) without clobbering completion state or overrides, so
	// concurrent reconciliation runs stay idempotent.
	Upsert(ctx context.Context, inst *domain.RecurringInstance) error
	Update(ctx context.Context, inst *domain.RecurringInstance) error
	Retire(ctx context.Context, id string) error
}

type HolidayRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Holiday, error)
	Create(ctx context.Context, h *domain.Holiday) error
	Delete(ctx context.Context, userID string, date time.Time) error
}

type GroupFilter struct {
	MemberID string
	Limit    int
	Offset   int
}

type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context, filter GroupFilter) ([]domain.Group, error)
	Save(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id string) error
}
