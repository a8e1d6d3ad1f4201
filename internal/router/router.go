package router

import (
	"encoding/json"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

type Options struct {
	EnableMetrics bool
	Logger        *zap.Logger
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := router.New()
	r.SaveMatchedRoutePath = true
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, http.StatusNotFound, transport.ErrorResponse{Code: string(domain.ErrCodeNotFound), Message: "route not found"})
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, rcv interface{}) {
		logger.Error("handler panic", zap.Any("panic", rcv), zap.ByteString("path", ctx.Path()))
		writeJSON(ctx, http.StatusInternalServerError, transport.ErrorResponse{Code: string(domain.ErrCodeInternal), Message: "internal server error"})
	}

	r.GET("/health", handlers.Health.Check)
	if opts.EnableMetrics {
		r.GET("/metrics", middleware.MetricsHandler())
	}

	// Protected routes
	r.GET("/api/auth/me", authMiddleware(handlers.Auth.Me))
	r.POST("/api/auth/logout", authMiddleware(handlers.Auth.Logout))

	r.GET("/api/tasks", authMiddleware(handlers.Task.ListTasks))
	r.POST("/api/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	return r
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, _ := json.Marshal(payload)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
