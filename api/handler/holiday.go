package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskline/backend/api/transport"
	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/holiday"
	"github.com/taskline/backend/pkg/httpcontext"
	"github.com/taskline/backend/repository"
)

type HolidayHandler struct {
	baseHandler
	repo   repository.HolidayRepository
	public holiday.Lookup
}

func NewHolidayHandler(repo repository.HolidayRepository, public holiday.Lookup, adapter *httpcontext.Adapter, logger *zap.Logger) *HolidayHandler {
	if public == nil {
		public = holiday.None
	}
	return &HolidayHandler{
		baseHandler: newBaseHandler(adapter, logger),
		repo:        repo,
		public:      public,
	}
}

// @Summary Check a date against the holiday calendar
// @Tags holidays
// @Router /api/v1/holidays/check [get]
func (h *HolidayHandler) Check(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	date := dayOrDefault(string(ctx.QueryArgs().Peek("date")), time.Now())

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	custom, err := h.repo.ListByUser(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	lookup := holiday.Chain(holiday.NewTable(custom), h.public)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"date":    date.Format(domain.DateLayout),
		"holiday": lookup.Lookup(date),
	})
}

// @Summary List user-defined holidays
// @Tags holidays
// @Router /api/v1/holidays [get]
func (h *HolidayHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	holidays, err := h.repo.ListByUser(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, holidays)
}

// @Summary Add a user-defined holiday
// @Tags holidays
// @Router /api/v1/holidays [post]
func (h *HolidayHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.HolidayRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Name == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	date := domain.ParseDay(req.Date)
	if date == nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid date", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	hol := &domain.Holiday{UserID: userID, Date: *date, Name: req.Name, Custom: true}
	if err := h.repo.Create(stdCtx, hol); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, hol)
}

// @Summary Remove a user-defined holiday
// @Tags holidays
// @Router /api/v1/holidays/{date} [delete]
func (h *HolidayHandler) Delete(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	raw, _ := ctx.UserValue("date").(string)
	date := domain.ParseDay(raw)
	if date == nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid date", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.repo.Delete(stdCtx, userID, *date); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
