package template

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/engine/recurrence"
	"github.com/taskline/backend/holiday"
	"github.com/taskline/backend/repository"
)

type UseCase struct {
	templates repository.TemplateRepository
	holidays  repository.HolidayRepository
	public    holiday.Lookup
	logger    *zap.Logger
}

func New(
	templates repository.TemplateRepository,
	holidays repository.HolidayRepository,
	public holiday.Lookup,
	logger *zap.Logger,
) *UseCase {
	if public == nil {
		public = holiday.None
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		templates: templates,
		holidays:  holidays,
		public:    public,
		logger:    logger,
	}
}

func (uc *UseCase) ListTemplates(ctx context.Context, userID string, activeOnly bool) ([]domain.RecurringTemplate, error) {
	return uc.templates.List(ctx, userID, activeOnly)
}

func (uc *UseCase) GetTemplate(ctx context.Context, id string) (*domain.RecurringTemplate, error) {
	return uc.templates.GetByID(ctx, id)
}

func (uc *UseCase) CreateTemplate(ctx context.Context, tpl *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	if err := validate(tpl); err != nil {
		return nil, err
	}
	return uc.templates.Create(ctx, tpl)
}

// UpdateTemplate edits the master pattern. Already-materialized instances
// are left alone here; the reconciler converges them on its next pass.
func (uc *UseCase) UpdateTemplate(ctx context.Context, tpl *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	if err := validate(tpl); err != nil {
		return nil, err
	}
	if tpl.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.templates.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Deactivate stops new instance generation while keeping existing instances.
func (uc *UseCase) Deactivate(ctx context.Context, id string) (*domain.RecurringTemplate, error) {
	tpl, err := uc.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.IsActive = false
	if err := uc.templates.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (uc *UseCase) DeleteTemplate(ctx context.Context, id string) error {
	return uc.templates.Delete(ctx, id)
}

// Expand previews the occurrence dates of a template within [from, to],
// using the owner's custom holidays layered over the public calendar.
func (uc *UseCase) Expand(ctx context.Context, id string, from, to time.Time) ([]time.Time, error) {
	tpl, err := uc.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lookup := uc.public
	if uc.holidays != nil {
		custom, err := uc.holidays.ListByUser(ctx, tpl.UserID)
		if err != nil {
			return nil, err
		}
		if len(custom) > 0 {
			lookup = holiday.Chain(holiday.NewTable(custom), uc.public)
		}
	}

	expander := recurrence.NewExpander(lookup, uc.logger)
	return expander.Expand(tpl, from, to), nil
}

func validate(tpl *domain.RecurringTemplate) error {
	if tpl == nil || tpl.Title == "" || tpl.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if tpl.StartDate.IsZero() {
		return domain.NewError(domain.ErrCodeInvalid, "template requires a start date")
	}
	switch tpl.Recurrence {
	case domain.RecurDaily, domain.RecurYearly:
	case domain.RecurWeekly:
		if tpl.Weekly == nil {
			return domain.NewError(domain.ErrCodeInvalid, "weekly template requires a weekly rule")
		}
	case domain.RecurMonthly:
		if tpl.Monthly == nil {
			return domain.NewError(domain.ErrCodeInvalid, "monthly template requires a monthly rule")
		}
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown recurrence cadence")
	}
	switch tpl.HolidayHandling {
	case domain.HolidayBefore, domain.HolidayAfter, domain.HolidayShow:
	case "":
		tpl.HolidayHandling = domain.HolidayShow
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown holiday handling")
	}
	if tpl.Priority == "" {
		tpl.Priority = domain.PriorityMedium
	}
	if tpl.Type == "" {
		tpl.Type = domain.TypeSimple
	}
	return nil
}
