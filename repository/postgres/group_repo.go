package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository returns a Postgres-backed store for sharing groups.
func NewGroupRepository(pool *pgxpool.Pool) repository.GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	const query = `
	SELECT id, owner_id, name, members, created_at, updated_at
	FROM groups WHERE id = $1
	`
	var g domain.Group
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.OwnerID, &g.Name, &g.Members, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) List(ctx context.Context, filter repository.GroupFilter) ([]domain.Group, error) {
	const query = `
	SELECT id, owner_id, name, members, created_at, updated_at
	FROM groups
	WHERE ($1 = '' OR owner_id = $1 OR $1 = ANY(members))
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.MemberID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Members, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) Save(ctx context.Context, group *domain.Group) error {
	if group == nil || group.OwnerID == "" {
		return domain.ErrInvalidPayload
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO groups (id, owner_id, name, members)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET name = EXCLUDED.name, members = EXCLUDED.members, updated_at = NOW()
	RETURNING created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		group.ID, group.OwnerID, group.Name, group.Members,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}
