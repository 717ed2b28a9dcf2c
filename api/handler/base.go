package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/authgo/backend/api/transport"
	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewAuthMessage(message))
}

// mapError selects the status from the domain error code and exposes only
// the user-facing message. Duplicate username/email map to 400, not 409:
// the published contract fixes all signup failures at 400.
func mapError(err error) (int, string) {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		switch dErr.Code {
		case domain.ErrCodeInvalid, domain.ErrCodeConflict:
			return http.StatusBadRequest, dErr.Message
		case domain.ErrCodeUnauthorized:
			return http.StatusUnauthorized, dErr.Message
		case domain.ErrCodeForbidden:
			return http.StatusForbidden, dErr.Message
		case domain.ErrCodeNotFound:
			return http.StatusNotFound, dErr.Message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
