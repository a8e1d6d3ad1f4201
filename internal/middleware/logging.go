package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/pkg/httpcontext"
)

// AccessLog logs one line per request and guarantees an X-Request-ID on every response.
func AccessLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.String("route", matchedRoute(ctx)),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			if identity, ok := httpcontext.Identity(ctx); ok {
				fields = append(fields, zap.String("user_id", identity.ID))
			}

			switch {
			case status >= fasthttp.StatusInternalServerError:
				logger.Error("http request", fields...)
			case status >= fasthttp.StatusBadRequest:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		}
	}
}
