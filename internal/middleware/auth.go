package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

// BearerAuth verifies the bearer token and records its claims on the request.
// Requests without a valid token never reach next.
func BearerAuth(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				writeError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token")
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			claims, err := uc.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
					writeError(ctx, http.StatusServiceUnavailable, domain.ErrCodeUnavailable, "authentication unavailable")
					return
				}
				logger.Warn("rejected bearer token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				writeError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, rejectionMessage(err))
				return
			}

			httpcontext.SetClaims(ctx, claims)
			next(ctx)
		}
	}
}

// rejectionMessage exposes the domain message of an authentication failure
// and hides anything else.
func rejectionMessage(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code == domain.ErrCodeUnauthorized {
		return dErr.Message
	}
	return domain.ErrUnauthenticated.Message
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := json.Marshal(transport.ErrorResponse{Code: string(code), Message: message})
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
