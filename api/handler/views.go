package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskline/backend/api/transport"
	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/pkg/httpcontext"
	"github.com/taskline/backend/usecase/query"
)

// ViewHandler serves the calendar views: today, tomorrow, yesterday's
// leftovers, week, and month, all filtered through the query service.
type ViewHandler struct {
	baseHandler
	svc *query.Service
}

func NewViewHandler(svc *query.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		baseHandler: newBaseHandler(adapter, logger),
		svc:         svc,
	}
}

// @Summary Calendar view
// @Tags views
// @Router /api/v1/views/{view} [get]
func (h *ViewHandler) GetView(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	view, _ := ctx.UserValue("view").(string)
	date := dayOrDefault(string(ctx.QueryArgs().Peek("date")), time.Now())

	// The pool window covers every span a view can probe.
	from := domain.MonthStart(date).AddDate(0, 0, -7)
	to := domain.MonthStart(date).AddDate(0, 1, 7)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pool, err := h.svc.Pool(stdCtx, userID, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	pool = h.svc.QueryTasks(pool, filtersFromQuery(ctx))

	var tasks []domain.Task
	switch view {
	case "today":
		tasks = h.svc.Today(pool, date)
	case "tomorrow":
		tasks = h.svc.Tomorrow(pool, date)
	case "yesterday":
		tasks = h.svc.YesterdayIncomplete(pool, date)
	case "week":
		tasks = h.svc.Week(pool, date)
	case "month":
		tasks = h.svc.Month(pool, date)
	default:
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "unknown view", nil))
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(tasks, transport.ListMeta{Count: len(tasks)}))
}

// @Summary Filtered task pool
// @Tags views
// @Router /api/v1/query [get]
func (h *ViewHandler) QueryTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	date := dayOrDefault(string(ctx.QueryArgs().Peek("date")), time.Now())
	from := domain.MonthStart(date).AddDate(0, 0, -7)
	to := domain.MonthStart(date).AddDate(0, 1, 7)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pool, err := h.svc.Pool(stdCtx, userID, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	tasks := h.svc.QueryTasks(pool, filtersFromQuery(ctx))
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(tasks, transport.ListMeta{Count: len(tasks)}))
}

func filtersFromQuery(ctx *fasthttp.RequestCtx) query.Filters {
	args := ctx.QueryArgs()
	f := query.Filters{
		Search:   string(args.Peek("q")),
		Priority: string(args.Peek("priority")),
		Type:     string(args.Peek("type")),
		Project:  string(args.Peek("project")),
		Sharing:  string(args.Peek("sharing")),
		GroupID:  string(args.Peek("group_id")),
		Bucket:   string(args.Peek("completed_bucket")),
	}
	if raw := string(args.Peek("tags")); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	return f
}
