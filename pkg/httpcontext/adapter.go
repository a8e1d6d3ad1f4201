package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/authtoken"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyIdentity   Key = "identity"

	userValueRequestID = "httpcontext.request_id"
	userValueClaims    = "httpcontext.claims"

	HeaderRequestID = "X-Request-ID"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it
// with request metadata and the authenticated identity, when present.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if identity, ok := Identity(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyIdentity, identity)
		stdCtx = appLogger.ContextWithUserID(stdCtx, identity.ID)
	}

	return stdCtx, cancel
}

// RequestID returns the request ID for ctx, taking it from the incoming header
// or generating one, and echoes it on the response.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if reqID, ok := ctx.UserValue(userValueRequestID).(string); ok && reqID != "" {
		return reqID
	}

	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)
	return reqID
}

// SetClaims records the verified token claims on the request.
func SetClaims(ctx *fasthttp.RequestCtx, claims *authtoken.Claims) {
	ctx.SetUserValue(userValueClaims, claims)
}

// Claims returns the verified token claims, or nil for unauthenticated requests.
func Claims(ctx *fasthttp.RequestCtx) *authtoken.Claims {
	claims, _ := ctx.UserValue(userValueClaims).(*authtoken.Claims)
	return claims
}

// Identity returns the authenticated caller of the request.
func Identity(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity := Claims(ctx).Identity()
	return identity, !identity.IsZero()
}

// IdentityFrom returns the caller stored by Attach.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	if ctx == nil {
		return domain.Identity{}, false
	}
	identity, ok := ctx.Value(KeyIdentity).(domain.Identity)
	return identity, ok && !identity.IsZero()
}
