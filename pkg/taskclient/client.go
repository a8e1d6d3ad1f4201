// Package taskclient talks to the task API and keeps a local, refresh-driven
// view of the caller's tasks.
package taskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
)

// API is the subset of the task API the Controller depends on.
type API interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, req transport.CreateTaskRequest) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) (string, error)
}

// Client is an HTTP client for the task API. Every request carries the bearer
// token. Requests wait indefinitely unless ctx has a deadline.
type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client
}

var _ API = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &fasthttp.Client{Name: "taskctl"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks, http.StatusOK); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req transport.CreateTaskRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &task, http.StatusCreated); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), req, &task, http.StatusOK); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	var out transport.DeleteTaskResponse
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Me returns the identity the server resolved from the token.
func (c *Client) Me(ctx context.Context) (domain.Identity, error) {
	var identity transport.IdentityResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &identity, http.StatusOK)
	return identity, err
}

// Logout revokes the token on the server and returns its id.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var out transport.RevokeResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Revoked, nil
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, want int) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "request cancelled", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "encode request", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "request failed", err)
	}

	if resp.StatusCode() != want {
		return responseError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "decode response", err)
	}
	return nil
}

// responseError rebuilds the server's domain error from an error body, falling
// back to a code derived from the status.
func responseError(status int, body []byte) error {
	var payload transport.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Code != "" {
		return domain.NewError(domain.ErrorCode(payload.Code), payload.Message)
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(status)
	}
	return domain.NewError(codeForStatus(status), message)
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrCodeInvalid
	case http.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case http.StatusNotFound:
		return domain.ErrCodeNotFound
	case http.StatusNotImplemented:
		return domain.ErrCodeUnsupported
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.ErrCodeUnavailable
	default:
		return domain.ErrCodeInternal
	}
}
