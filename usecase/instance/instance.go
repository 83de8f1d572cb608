package instance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/repository"
)

type UseCase struct {
	instances repository.InstanceRepository
	logger    *zap.Logger
}

func New(instances repository.InstanceRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		instances: instances,
		logger:    logger,
	}
}

func (uc *UseCase) GetInstance(ctx context.Context, id string) (*domain.RecurringInstance, error) {
	return uc.instances.GetByID(ctx, id)
}

func (uc *UseCase) ListByTemplate(ctx context.Context, templateID string, from, to time.Time) ([]domain.RecurringInstance, error) {
	return uc.instances.ListByTemplate(ctx, templateID, from, to)
}

// SetCompleted toggles a single occurrence's completion without touching
// its template or sibling occurrences.
func (uc *UseCase) SetCompleted(ctx context.Context, id string, completed bool) (*domain.RecurringInstance, error) {
	inst, err := uc.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inst.Completed = completed
	if completed {
		now := time.Now()
		inst.CompletedAt = &now
		inst.Skipped = false
		inst.SkipReason = ""
	} else {
		inst.CompletedAt = nil
	}

	if err := uc.instances.Update(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Skip hides one occurrence with a reason, leaving the pattern intact.
func (uc *UseCase) Skip(ctx context.Context, id, reason string) (*domain.RecurringInstance, error) {
	inst, err := uc.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inst.Skipped = true
	inst.SkipReason = reason

	if err := uc.instances.Update(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Override replaces selected fields on a single occurrence. A nil override
// clears the divergence and the occurrence falls back to template values.
func (uc *UseCase) Override(ctx context.Context, id string, overrides *domain.InstanceOverrides) (*domain.RecurringInstance, error) {
	inst, err := uc.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inst.Overrides = overrides

	if err := uc.instances.Update(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
