package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskline/backend/api/transport"
	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/internal/services"
	"github.com/taskline/backend/pkg/httpcontext"
	instanceUC "github.com/taskline/backend/usecase/instance"
	templateUC "github.com/taskline/backend/usecase/template"
)

type InstanceHandler struct {
	baseHandler
	uc         *instanceUC.UseCase
	templates  *templateUC.UseCase
	reconciler *services.Reconciler
}

func NewInstanceHandler(
	uc *instanceUC.UseCase,
	templates *templateUC.UseCase,
	reconciler *services.Reconciler,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *InstanceHandler {
	return &InstanceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		templates:   templates,
		reconciler:  reconciler,
	}
}

// @Summary List instances of a template
// @Tags instances
// @Router /api/v1/templates/{id}/instances [get]
func (h *InstanceHandler) ListInstances(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	templateID, _ := ctx.UserValue("id").(string)
	if templateID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing template id", nil))
		return
	}

	now := time.Now()
	from := dayOrDefault(string(ctx.QueryArgs().Peek("from")), now.AddDate(0, -1, 0))
	to := dayOrDefault(string(ctx.QueryArgs().Peek("to")), now.AddDate(0, 1, 0))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	instances, err := h.uc.ListByTemplate(stdCtx, templateID, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, instances)
}

// @Summary Mutate a single occurrence
// @Tags instances
// @Router /api/v1/instances/{id} [patch]
func (h *InstanceHandler) PatchInstance(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing instance id", nil))
		return
	}

	var req transport.InstanceActionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		inst *domain.RecurringInstance
		err  error
	)
	switch {
	case req.Completed != nil:
		inst, err = h.uc.SetCompleted(stdCtx, id, *req.Completed)
	case req.Skipped != nil && *req.Skipped:
		inst, err = h.uc.Skip(stdCtx, id, req.SkipReason)
	case req.Overrides != nil:
		inst, err = h.uc.Override(stdCtx, id, parseOverrides(req.Overrides))
	default:
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "no action in payload", nil))
		return
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, inst)
}

// @Summary Reconcile a template's instances now
// @Tags instances
// @Router /api/v1/templates/{id}/reconcile [post]
func (h *InstanceHandler) ReconcileTemplate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	templateID, _ := ctx.UserValue("id").(string)
	if templateID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing template id", nil))
		return
	}

	now := time.Now()
	from := dayOrDefault(string(ctx.QueryArgs().Peek("from")), now)
	to := dayOrDefault(string(ctx.QueryArgs().Peek("to")), now.AddDate(0, 2, 0))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tpl, err := h.templates.GetTemplate(stdCtx, templateID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	report, err := h.reconciler.ReconcileTemplate(stdCtx, tpl, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

func parseOverrides(req *transport.OverridesRequest) *domain.InstanceOverrides {
	if req == nil {
		return nil
	}
	o := &domain.InstanceOverrides{
		Title:       req.Title,
		Description: req.Description,
		DueTime:     req.DueTime,
		Tags:        req.Tags,
	}
	if req.Priority != nil {
		if p, ok := domain.ParsePriority(*req.Priority); ok {
			o.Priority = &p
		}
	}
	return o
}
