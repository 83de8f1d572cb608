package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/engine/materialize"
	"github.com/taskline/backend/engine/recurrence"
	"github.com/taskline/backend/holiday"
	"github.com/taskline/backend/internal/infrastructure/buffer"
	"github.com/taskline/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ReconcilerConfig controls the background materialization schedule.
type ReconcilerConfig struct {
	Interval    time.Duration
	HorizonDays int
	BatchSize   int
	MaxRetries  int
	Retention   time.Duration
}

// ReconcileReport summarizes one reconciliation pass over a template.
// Failed dates are buffered for retry, so callers (and the drain loop)
// can distinguish partial success from total failure.
type ReconcileReport struct {
	TemplateID string      `json:"template_id"`
	Created    int         `json:"created"`
	Retained   int         `json:"retained"`
	Retired    int         `json:"retired"`
	Failed     []time.Time `json:"failed,omitempty"`
}

// Reconciler periodically expands every active recurring template over a
// rolling horizon and materializes the result, then drains the retry buffer
// of writes that failed while storage was unreachable. Per-template
// serialization is not needed: instance ids are deterministic and the
// storage upsert is conflict-safe, so overlapping runs converge.
type Reconciler struct {
	templates repository.TemplateRepository
	instances repository.InstanceRepository
	holidays  repository.HolidayRepository
	public    holiday.Lookup
	store     *buffer.Store
	monitor   ConnectionHealth
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ReconcilerConfig
}

func NewReconciler(
	templates repository.TemplateRepository,
	instances repository.InstanceRepository,
	holidays repository.HolidayRepository,
	public holiday.Lookup,
	store *buffer.Store,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ReconcilerConfig,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 62
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if public == nil {
		public = holiday.None
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reconciler{
		templates: templates,
		instances: instances,
		holidays:  holidays,
		public:    public,
		store:     store,
		monitor:   monitor,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("reconciliation pass failed", zap.Error(err))
		}
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("retry drain failed", zap.Error(err))
		}
		if err := r.CleanupExpired(cfg.Retention); err != nil {
			r.logger.Warn("retry buffer cleanup failed", zap.Error(err))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *Reconciler) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("reconciler started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Int("horizon_days", r.cfg.HorizonDays))
}

// Stop gracefully stops the scheduler.
func (r *Reconciler) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("reconciler stopped")
}

// RunOnce reconciles every active template over [today, today+horizon].
func (r *Reconciler) RunOnce(ctx context.Context) error {
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping reconciliation (offline)")
		return nil
	}

	templates, err := r.templates.ListActive(ctx)
	if err != nil {
		return err
	}

	today := domain.DayOf(time.Now())
	to := today.AddDate(0, 0, r.cfg.HorizonDays)

	for i := range templates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report, err := r.ReconcileTemplate(ctx, &templates[i], today, to)
		if err != nil {
			r.logger.Error("template reconciliation failed",
				zap.String("template_id", templates[i].ID), zap.Error(err))
			continue
		}
		if report.Created > 0 || report.Retired > 0 || len(report.Failed) > 0 {
			r.logger.Info("template reconciled",
				zap.String("template_id", report.TemplateID),
				zap.Int("created", report.Created),
				zap.Int("retired", report.Retired),
				zap.Int("failed", len(report.Failed)))
		}
	}
	return nil
}

// ReconcileTemplate expands one template over [from, to] and applies the
// resulting plan. Writes that fail are buffered and reported, not fatal.
func (r *Reconciler) ReconcileTemplate(ctx context.Context, tpl *domain.RecurringTemplate, from, to time.Time) (ReconcileReport, error) {
	report := ReconcileReport{TemplateID: tpl.ID}

	lookup, err := r.lookupFor(ctx, tpl.UserID)
	if err != nil {
		return report, err
	}

	expander := recurrence.NewExpander(lookup, r.logger)
	dates := expander.Expand(tpl, from, to)

	existing, err := r.instances.ListByTemplate(ctx, tpl.ID, from, to)
	if err != nil {
		return report, err
	}

	plan := materialize.Reconcile(tpl, dates, existing, time.Now())
	report.Retained = len(plan.ToRetain)

	for i := range plan.ToCreate {
		inst := plan.ToCreate[i]
		if err := r.instances.Upsert(ctx, &inst); err != nil {
			r.bufferWrite(buffer.OperationUpsert, &inst, err)
			report.Failed = append(report.Failed, inst.InstanceDate)
			continue
		}
		report.Created++
	}
	for i := range plan.ToRetire {
		inst := plan.ToRetire[i]
		if err := r.instances.Retire(ctx, inst.ID); err != nil {
			r.bufferWrite(buffer.OperationRetire, &inst, err)
			report.Failed = append(report.Failed, inst.InstanceDate)
			continue
		}
		report.Retired++
	}

	return report, nil
}

// lookupFor layers the user's custom holidays over the public calendar.
func (r *Reconciler) lookupFor(ctx context.Context, userID string) (holiday.Lookup, error) {
	if r.holidays == nil {
		return r.public, nil
	}
	custom, err := r.holidays.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(custom) == 0 {
		return r.public, nil
	}
	return holiday.Chain(holiday.NewTable(custom), r.public), nil
}

func (r *Reconciler) bufferWrite(operation string, inst *domain.RecurringInstance, cause error) {
	if r.store == nil {
		return
	}
	payload, err := json.Marshal(inst)
	if err != nil {
		r.logger.Error("failed to encode instance for retry buffer", zap.Error(err))
		return
	}
	// Keyed per target row, so repeated failures replace the pending
	// write instead of accumulating.
	item := buffer.Item{
		ID:         operation + ":" + inst.ID,
		UserID:     inst.UserID,
		TemplateID: inst.TemplateID,
		Entity:     buffer.EntityInstance,
		Operation:  operation,
		Data:       payload,
	}
	if err := r.store.Enqueue(item); err != nil {
		r.logger.Error("failed to buffer instance write", zap.Error(err))
		return
	}
	r.logger.Warn("instance write buffered for retry",
		zap.String("template_id", inst.TemplateID),
		zap.String("operation", operation),
		zap.Error(cause))
}

// Drain retries buffered instance writes while storage is reachable.
func (r *Reconciler) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping retry drain (offline)")
		return nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.replay(ctx, item); err != nil {
			item.Retries++
			if item.Retries > r.cfg.MaxRetries {
				r.logger.Error("dropping buffered write after max retries",
					zap.String("item_id", item.ID),
					zap.String("operation", item.Operation),
					zap.Error(err))
				_ = r.store.Remove(item)
				continue
			}
			_ = r.store.Requeue(item)
			continue
		}
		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to remove drained item", zap.Error(err))
		}
	}
	return nil
}

func (r *Reconciler) replay(ctx context.Context, item buffer.Item) error {
	var inst domain.RecurringInstance
	if err := json.Unmarshal(item.Data, &inst); err != nil {
		// Unreadable payloads can never succeed; drop them.
		r.logger.Error("discarding undecodable buffered item", zap.String("item_id", item.ID))
		return nil
	}
	switch item.Operation {
	case buffer.OperationUpsert:
		return r.instances.Upsert(ctx, &inst)
	case buffer.OperationRetire:
		err := r.instances.Retire(ctx, inst.ID)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}
	r.logger.Warn("unknown buffered operation", zap.String("operation", item.Operation))
	return nil
}

// CleanupExpired removes buffered items older than the retention window.
func (r *Reconciler) CleanupExpired(retention time.Duration) error {
	if r == nil || r.store == nil || retention <= 0 {
		return nil
	}
	return r.store.Cleanup(time.Now().Add(-retention))
}
