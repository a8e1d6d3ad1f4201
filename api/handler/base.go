package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"code":"INTERNAL","message":"internal server error"}`)
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.Error(err))
		message = publicMessage(err)
	}
	h.respondJSON(ctx, status, transport.ErrorResponse{Code: string(code), Message: message})
}

// publicMessage hides driver details of server-side failures.
func publicMessage(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeInternal {
		return dErr.Message
	}
	return "internal server error"
}

// identity returns the authenticated caller or writes a 401 and reports false.
func (h baseHandler) identity(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := httpcontext.Identity(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrUnauthenticated)
	}
	return identity, ok
}

// mapError translates domain codes to HTTP statuses. Ownership failures share
// 401 with authentication failures; the body code tells them apart.
func mapError(err error) (int, domain.ErrorCode) {
	switch code := domain.CodeOf(err); code {
	case domain.ErrCodeUnauthorized, domain.ErrCodeForbidden:
		return http.StatusUnauthorized, code
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, code
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, code
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, code
	case domain.ErrCodeUnsupported:
		return http.StatusNotImplemented, code
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}
