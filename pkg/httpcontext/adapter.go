// Package httpcontext bridges fasthttp request contexts to the stdlib
// context.Context the usecase and repository layers expect.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/taskline/backend/pkg/logger"
)

// Key identifies request metadata stored on the derived context.
type Key string

const KeyRemoteAddr Key = "remote_addr"

const requestIDHeader = "X-Request-ID"

// Adapter derives per-request stdlib contexts with a uniform timeout.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach builds a deadline-bound context for the request, propagates the
// caller's request id (minting one when absent) and echoes it on the
// response so clients can correlate logs.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(requestIDHeader, reqID)

	if addr := ctx.RemoteAddr(); addr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, addr.String())
	}

	return stdCtx, cancel
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if id := strings.TrimSpace(string(ctx.Request.Header.Peek(requestIDHeader))); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
