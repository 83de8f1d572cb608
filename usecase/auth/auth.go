// Package auth issues and maintains sessions. A session lives in Redis;
// the signed token handed to the client references it through the sid
// claim, so revoking the session invalidates the token's ability to be
// refreshed even before its expiry.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	secret   []byte
	issuer   string
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		issuer:   issuer,
		logger:   logger,
	}
}

// Login verifies the user and opens a session, returning the signed token
// the client presents on subsequent requests.
func (uc *UseCase) Login(ctx context.Context, userID string, ttl time.Duration) (string, *domain.Session, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive() {
		return "", nil, domain.NewError(domain.ErrCodeUnauthorized, "account disabled")
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return "", nil, err
	}

	token, err := uc.signToken(session)
	if err != nil {
		return "", nil, err
	}
	uc.logger.Info("session opened", zap.String("user_id", userID))
	return token, session, nil
}

// Refresh extends a live session and mints a fresh token for it. Expired
// or revoked sessions cannot be refreshed.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string, ttl time.Duration) (string, *domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return "", nil, domain.ErrSessionNotFound
	}

	session.ExpiresAt = time.Now().Add(ttl)
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return "", nil, err
	}

	token, err := uc.signToken(session)
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// Logout revokes the session.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) signToken(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": session.UserID,
		"sid": session.ID,
		"iat": session.CreatedAt.Unix(),
		"exp": session.ExpiresAt.Unix(),
	}
	if uc.issuer != "" {
		claims["iss"] = uc.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(uc.secret)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}
