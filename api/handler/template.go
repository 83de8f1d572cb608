package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskline/backend/api/transport"
	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/pkg/httpcontext"
	templateUC "github.com/taskline/backend/usecase/template"
)

type TemplateHandler struct {
	baseHandler
	uc *templateUC.UseCase
}

func NewTemplateHandler(uc *templateUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List recurring templates
// @Tags templates
// @Router /api/v1/templates [get]
func (h *TemplateHandler) GetTemplates(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	activeOnly := string(ctx.QueryArgs().Peek("active")) == "true"

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	templates, err := h.uc.ListTemplates(stdCtx, userID, activeOnly)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, templates)
}

// @Summary Create recurring template
// @Tags templates
// @Router /api/v1/templates [post]
func (h *TemplateHandler) CreateTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	tpl, ok := h.parseTemplate(ctx, userID)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTemplate(stdCtx, tpl)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update recurring template
// @Tags templates
// @Router /api/v1/templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	tpl, ok := h.parseTemplate(ctx, userID)
	if !ok {
		return
	}
	if tpl.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			tpl.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTemplate(stdCtx, tpl)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Deactivate recurring template
// @Tags templates
// @Router /api/v1/templates/{id}/deactivate [post]
func (h *TemplateHandler) DeactivateTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing template id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tpl, err := h.uc.Deactivate(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tpl)
}

// @Summary Delete recurring template
// @Tags templates
// @Router /api/v1/templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing template id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTemplate(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Preview template occurrences
// @Tags templates
// @Router /api/v1/templates/{id}/expand [get]
func (h *TemplateHandler) ExpandTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing template id", nil))
		return
	}

	now := time.Now()
	from := dayOrDefault(string(ctx.QueryArgs().Peek("from")), now)
	to := dayOrDefault(string(ctx.QueryArgs().Peek("to")), now.AddDate(0, 1, 0))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dates, err := h.uc.Expand(stdCtx, id, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	days := make([]string, 0, len(dates))
	for _, d := range dates {
		days = append(days, d.Format(domain.DateLayout))
	}
	h.respondSuccess(ctx, http.StatusOK, days)
}

func (h *TemplateHandler) parseTemplate(ctx *fasthttp.RequestCtx, userID string) (*domain.RecurringTemplate, bool) {
	var req transport.TemplateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}

	tpl := &domain.RecurringTemplate{
		ID:              req.ID,
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		Project:         req.Project,
		DueTime:         req.DueTime,
		Recurrence:      domain.Recurrence(req.Recurrence),
		HolidayHandling: domain.HolidayHandling(req.HolidayHandling),
		EndDate:         h.parseDay(req.EndDate, req.ID, "end_date"),
		IsActive:        true,
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if start := h.parseDay(req.StartDate, req.ID, "start_date"); start != nil {
		tpl.StartDate = *start
	}
	if p, ok := domain.ParsePriority(req.Priority); ok {
		tpl.Priority = p
	}
	if t, ok := domain.ParseTaskType(req.Type); ok {
		tpl.Type = t
	}
	if req.Weekly != nil {
		tpl.Weekly = &domain.WeeklyRule{
			Weekday: time.Weekday(req.Weekly.Weekday),
			Week:    domain.WeekOfMonth(req.Weekly.Week),
		}
	}
	if req.Monthly != nil {
		tpl.Monthly = &domain.MonthlyRule{
			Type:    domain.MonthlyRuleType(req.Monthly.Type),
			Day:     domain.MonthDay(req.Monthly.Day),
			Weekday: time.Weekday(req.Monthly.Weekday),
			Ordinal: req.Monthly.Ordinal,
		}
	}
	for _, ex := range req.Exceptions {
		rule := domain.ExceptionRule{
			Type:   domain.ExceptionType(ex.Type),
			Values: ex.Values,
		}
		for _, raw := range ex.Dates {
			if d := h.parseDay(raw, req.ID, "exception_date"); d != nil {
				rule.Dates = append(rule.Dates, *d)
			}
		}
		tpl.Exceptions = append(tpl.Exceptions, rule)
	}

	return tpl, true
}
