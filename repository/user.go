package repository

import (
	"context"

	"github.com/taskline/backend/domain"
)

// UserRepository persists account records. Upsert covers both first-login
// provisioning and profile updates.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}
