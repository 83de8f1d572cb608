package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type UseCase struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, groups repository.GroupRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		groups: groups,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if user.Status == "" {
		user.Status = "active"
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListGroups returns the sharing groups the user owns or belongs to.
func (uc *UseCase) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	return uc.groups.List(ctx, repository.GroupFilter{MemberID: userID})
}

// SaveGroup creates or updates a sharing group. Only the owner may edit an
// existing group.
func (uc *UseCase) SaveGroup(ctx context.Context, userID string, group *domain.Group) (*domain.Group, error) {
	if group == nil || group.Name == "" {
		return nil, domain.ErrInvalidPayload
	}
	if group.ID != "" {
		existing, err := uc.groups.GetByID(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		if existing.OwnerID != userID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the owner can edit a group")
		}
	}
	group.OwnerID = userID
	if err := uc.groups.Save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (uc *UseCase) DeleteGroup(ctx context.Context, userID, groupID string) error {
	existing, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if existing.OwnerID != userID {
		return domain.NewError(domain.ErrCodeForbidden, "only the owner can delete a group")
	}
	return uc.groups.Delete(ctx, groupID)
}
