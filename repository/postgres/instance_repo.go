package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type instanceRepository struct {
	pool *pgxpool.Pool
}

// NewInstanceRepository returns a Postgres-backed InstanceRepository.
func NewInstanceRepository(pool *pgxpool.Pool) repository.InstanceRepository {
	return &instanceRepository{pool: pool}
}

const instanceColumns = `id, template_id, user_id, instance_date, completed, completed_at,
	skipped, skip_reason, overrides, retired, created_at, updated_at`

func (r *instanceRepository) GetByID(ctx context.Context, id string) (*domain.RecurringInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM recurring_instances WHERE id = $1`
	return scanInstance(r.pool.QueryRow(ctx, query, id))
}

func (r *instanceRepository) ListByTemplate(ctx context.Context, templateID string, from, to time.Time) ([]domain.RecurringInstance, error) {
	query := `
	SELECT ` + instanceColumns + `
	FROM recurring_instances
	WHERE template_id = $1 AND instance_date BETWEEN $2 AND $3
	ORDER BY instance_date
	`
	rows, err := r.pool.Query(ctx, query, templateID, domain.DayOf(from), domain.DayOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInstances(rows)
}

func (r *instanceRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]domain.RecurringInstance, error) {
	query := `
	SELECT ` + instanceColumns + `
	FROM recurring_instances
	WHERE user_id = $1 AND instance_date BETWEEN $2 AND $3
	ORDER BY instance_date
	`
	rows, err := r.pool.Query(ctx, query, userID, domain.DayOf(from), domain.DayOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInstances(rows)
}

// Upsert hits the (template_id, instance_date) unique constraint on conflict
// and only touches the retired flag, so a racing duplicate create is a no-op
// and completion state plus overrides always survive reconciliation.
func (r *instanceRepository) Upsert(ctx context.Context, inst *domain.RecurringInstance) error {
	if inst == nil {
		return domain.ErrInvalidPayload
	}
	if inst.ID == "" {
		inst.ID = domain.InstanceID(inst.TemplateID, inst.InstanceDate)
	}

	const query = `
	INSERT INTO recurring_instances (id, template_id, user_id, instance_date, completed,
		completed_at, skipped, skip_reason, overrides, retired)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (template_id, instance_date)
	DO UPDATE SET retired = EXCLUDED.retired, updated_at = NOW()
	RETURNING created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		inst.ID,
		inst.TemplateID,
		inst.UserID,
		domain.DayOf(inst.InstanceDate),
		inst.Completed,
		inst.CompletedAt,
		inst.Skipped,
		inst.SkipReason,
		marshalJSON(inst.Overrides),
		inst.Retired,
	).Scan(&inst.CreatedAt, &inst.UpdatedAt)
}

func (r *instanceRepository) Update(ctx context.Context, inst *domain.RecurringInstance) error {
	if inst == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE recurring_instances
	SET completed = $2,
		completed_at = $3,
		skipped = $4,
		skip_reason = $5,
		overrides = $6,
		retired = $7,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		inst.ID,
		inst.Completed,
		inst.CompletedAt,
		inst.Skipped,
		inst.SkipReason,
		marshalJSON(inst.Overrides),
		inst.Retired,
	).Scan(&inst.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInstanceNotFound
		}
		return err
	}
	return nil
}

// Retire soft-deletes: the row stays so history is never rewritten.
func (r *instanceRepository) Retire(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE recurring_instances SET retired = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

func collectInstances(rows pgx.Rows) ([]domain.RecurringInstance, error) {
	var instances []domain.RecurringInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

func scanInstance(row interface {
	Scan(dest ...interface{}) error
}) (*domain.RecurringInstance, error) {
	var inst domain.RecurringInstance
	var overrides []byte

	if err := row.Scan(
		&inst.ID,
		&inst.TemplateID,
		&inst.UserID,
		&inst.InstanceDate,
		&inst.Completed,
		&inst.CompletedAt,
		&inst.Skipped,
		&inst.SkipReason,
		&overrides,
		&inst.Retired,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, err
	}

	if len(overrides) > 0 {
		_ = json.Unmarshal(overrides, &inst.Overrides)
	}
	return &inst, nil
}
