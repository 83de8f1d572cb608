package repository

import (
	"context"

	"github.com/taskline/backend/domain"
)

// SessionRepository stores login sessions. Implementations own expiry;
// Extend pushes a session's deadline out without rewriting its payload.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}
