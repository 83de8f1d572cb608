package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository returns a Postgres-backed TemplateRepository. The
// pattern pieces (weekly/monthly rules and exceptions) are stored as JSONB:
// they are read and written whole, never queried into.
func NewTemplateRepository(pool *pgxpool.Pool) repository.TemplateRepository {
	return &templateRepository{pool: pool}
}

const templateColumns = `id, user_id, title, description, priority, type, tags, project, due_time,
	recurrence, weekly, monthly, holiday_handling, start_date, end_date, exceptions, is_active,
	created_at, updated_at`

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE id = $1`
	return scanTemplate(r.pool.QueryRow(ctx, query, id))
}

func (r *templateRepository) List(ctx context.Context, userID string, activeOnly bool) ([]domain.RecurringTemplate, error) {
	query := `
	SELECT ` + templateColumns + `
	FROM recurring_templates
	WHERE user_id = $1 AND ($2 = false OR is_active = true)
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *templateRepository) ListActive(ctx context.Context) ([]domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE is_active = true ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *templateRepository) Create(ctx context.Context, tpl *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	if tpl == nil {
		return nil, domain.ErrInvalidPayload
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO recurring_templates (id, user_id, title, description, priority, type, tags, project,
		due_time, recurrence, weekly, monthly, holiday_handling, start_date, end_date, exceptions, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		tpl.ID,
		tpl.UserID,
		tpl.Title,
		tpl.Description,
		string(tpl.Priority),
		string(tpl.Type),
		tpl.Tags,
		tpl.Project,
		tpl.DueTime,
		string(tpl.Recurrence),
		marshalJSON(tpl.Weekly),
		marshalJSON(tpl.Monthly),
		string(tpl.HolidayHandling),
		domain.DayOf(tpl.StartDate),
		dayArg(tpl.EndDate),
		marshalJSON(tpl.Exceptions),
		tpl.IsActive,
	).Scan(&tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *domain.RecurringTemplate) error {
	if tpl == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE recurring_templates
	SET title = $2,
		description = $3,
		priority = $4,
		type = $5,
		tags = $6,
		project = $7,
		due_time = $8,
		recurrence = $9,
		weekly = $10,
		monthly = $11,
		holiday_handling = $12,
		start_date = $13,
		end_date = $14,
		exceptions = $15,
		is_active = $16,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		tpl.ID,
		tpl.Title,
		tpl.Description,
		string(tpl.Priority),
		string(tpl.Type),
		tpl.Tags,
		tpl.Project,
		tpl.DueTime,
		string(tpl.Recurrence),
		marshalJSON(tpl.Weekly),
		marshalJSON(tpl.Monthly),
		string(tpl.HolidayHandling),
		domain.DayOf(tpl.StartDate),
		dayArg(tpl.EndDate),
		marshalJSON(tpl.Exceptions),
		tpl.IsActive,
	).Scan(&tpl.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTemplateNotFound
		}
		return err
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recurring_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func collectTemplates(rows pgx.Rows) ([]domain.RecurringTemplate, error) {
	var templates []domain.RecurringTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

func scanTemplate(row interface {
	Scan(dest ...interface{}) error
}) (*domain.RecurringTemplate, error) {
	var tpl domain.RecurringTemplate
	var (
		priority   string
		taskType   string
		recurrence string
		handling   string
		weekly     []byte
		monthly    []byte
		exceptions []byte
		start      time.Time
		end        *time.Time
	)

	if err := row.Scan(
		&tpl.ID,
		&tpl.UserID,
		&tpl.Title,
		&tpl.Description,
		&priority,
		&taskType,
		&tpl.Tags,
		&tpl.Project,
		&tpl.DueTime,
		&recurrence,
		&weekly,
		&monthly,
		&handling,
		&start,
		&end,
		&exceptions,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, err
	}

	tpl.Priority = domain.Priority(priority)
	tpl.Type = domain.TaskType(taskType)
	tpl.Recurrence = domain.Recurrence(recurrence)
	tpl.HolidayHandling = domain.HolidayHandling(handling)
	tpl.StartDate = start
	tpl.EndDate = end
	if len(weekly) > 0 {
		_ = json.Unmarshal(weekly, &tpl.Weekly)
	}
	if len(monthly) > 0 {
		_ = json.Unmarshal(monthly, &tpl.Monthly)
	}
	if len(exceptions) > 0 {
		_ = json.Unmarshal(exceptions, &tpl.Exceptions)
	}

	return &tpl, nil
}
