package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/authtoken"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

func newRequestCtx(header map[string]string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.SetRequestURI("/api/tasks")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestRequestID_FromHeader(t *testing.T) {
	ctx := newRequestCtx(map[string]string{HeaderRequestID: "abc"})

	assert.Equal(t, "abc", RequestID(ctx))
	assert.Equal(t, "abc", string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestRequestID_GeneratedOnce(t *testing.T) {
	ctx := newRequestCtx(nil)

	first := RequestID(ctx)
	require.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(ctx))
	assert.Equal(t, first, string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestAttach(t *testing.T) {
	ctx := newRequestCtx(map[string]string{HeaderRequestID: "req-9", "User-Agent": "taskctl"})
	claims := &authtoken.Claims{Name: "Ada"}
	claims.Subject = "u1"
	SetClaims(ctx, claims)

	stdCtx, cancel := NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	deadline, ok := stdCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
	assert.Equal(t, "req-9", appLogger.RequestIDFrom(stdCtx))
	assert.Equal(t, "taskctl", stdCtx.Value(KeyUserAgent))

	identity, ok := IdentityFrom(stdCtx)
	require.True(t, ok)
	assert.Equal(t, domain.Identity{ID: "u1", Name: "Ada"}, identity)
}

func TestIdentity_Unauthenticated(t *testing.T) {
	ctx := newRequestCtx(nil)

	_, ok := Identity(ctx)
	assert.False(t, ok)
	assert.Nil(t, Claims(ctx))

	stdCtx, cancel := NewAdapter(0).Attach(ctx)
	defer cancel()
	_, ok = IdentityFrom(stdCtx)
	assert.False(t, ok)
}
