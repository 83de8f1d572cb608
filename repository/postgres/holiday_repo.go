package postgres

import (
	"context"

	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type holidayRepository struct {
	pool *pgxpool.Pool
}

// NewHolidayRepository returns a Postgres-backed store for user-defined
// holidays. These feed the override lookup checked ahead of the public
// calendar during recurrence expansion.
func NewHolidayRepository(pool *pgxpool.Pool) repository.HolidayRepository {
	return &holidayRepository{pool: pool}
}

func (r *holidayRepository) ListByUser(ctx context.Context, userID string) ([]domain.Holiday, error) {
	const query = `
	SELECT holiday_date, name, user_id
	FROM custom_holidays
	WHERE user_id = $1
	ORDER BY holiday_date
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []domain.Holiday
	for rows.Next() {
		h := domain.Holiday{Custom: true}
		if err := rows.Scan(&h.Date, &h.Name, &h.UserID); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (r *holidayRepository) Create(ctx context.Context, h *domain.Holiday) error {
	if h == nil || h.UserID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO custom_holidays (user_id, holiday_date, name)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, holiday_date) DO UPDATE SET name = EXCLUDED.name
	`
	_, err := r.pool.Exec(ctx, query, h.UserID, domain.DayOf(h.Date), h.Name)
	return err
}

func (r *holidayRepository) Delete(ctx context.Context, userID string, date time.Time) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM custom_holidays WHERE user_id = $1 AND holiday_date = $2`,
		userID, domain.DayOf(date))
	return err
}
