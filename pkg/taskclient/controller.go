package taskclient

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
)

// ErrDeleteNotConfirmed is returned by RequestDelete when the user declines.
var ErrDeleteNotConfirmed = errors.New("delete not confirmed")

// Mode is the state of the draft/edit subsystem.
type Mode int

const (
	Idle Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "idle"
}

// Draft is the unsaved title and description being composed.
type Draft struct {
	Title       string
	Description string
}

// State is a snapshot of the edit subsystem. Target is set only while Editing.
type State struct {
	Mode   Mode
	Target *domain.Task
	Draft  Draft
}

type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

// Notice is a user-facing message. Failures always carry a generic message;
// Err holds the underlying cause for logging.
type Notice struct {
	Level   NoticeLevel
	Message string
	Err     error
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Confirmer asks the user to confirm deleting the task with id.
type Confirmer func(id string) bool

const (
	msgFetchFailed     = "Failed to fetch tasks"
	msgOperationFailed = "Operation failed"
	msgDeleteFailed    = "Delete failed"
	msgTaskCreated     = "Task created"
	msgTaskUpdated     = "Task updated"
	msgTaskDeleted     = "Task deleted"
)

// Controller caches the caller's tasks and drives create, edit, delete and
// filter. The cache is only ever replaced wholesale by Refresh. The lock is
// never held across a network call.
type Controller struct {
	api      API
	notifier Notifier
	logger   *zap.Logger

	mu     sync.RWMutex
	tasks  []domain.Task
	draft  Draft
	target *domain.Task
}

func NewController(api API, notifier Notifier, logger *zap.Logger) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:      api,
		notifier: notifier,
		logger:   logger,
		tasks:    []domain.Task{},
	}
}

// Refresh fetches the full list and replaces the cache. On failure the cache
// is left as it was.
func (c *Controller) Refresh(ctx context.Context) error {
	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		c.fail(msgFetchFailed, err)
		return err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	return nil
}

// SetDraft replaces the draft fields without changing the edit target.
func (c *Controller) SetDraft(d Draft) {
	c.mu.Lock()
	c.draft = d
	c.mu.Unlock()
}

func (c *Controller) Draft() Draft {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

// Submit updates the edit target with the draft when Editing, and creates a
// task otherwise. On success the draft is cleared, editing ends and the cache
// is refreshed; the returned error is then the Refresh result. On failure the
// draft and edit target are kept.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.RLock()
	draft := c.draft
	var targetID string
	if c.target != nil {
		targetID = c.target.ID
	}
	c.mu.RUnlock()

	var err error
	success := msgTaskCreated
	if targetID != "" {
		success = msgTaskUpdated
		_, err = c.api.UpdateTask(ctx, targetID, transport.UpdateTaskRequest{
			Title:       &draft.Title,
			Description: &draft.Description,
		})
	} else {
		_, err = c.api.CreateTask(ctx, transport.CreateTaskRequest{
			Title:       draft.Title,
			Description: draft.Description,
		})
	}
	if err != nil {
		c.fail(msgOperationFailed, err)
		return err
	}

	c.mu.Lock()
	c.draft = Draft{}
	if c.target != nil && c.target.ID == targetID {
		c.target = nil
	}
	c.mu.Unlock()

	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: success})
	return c.Refresh(ctx)
}

// BeginEdit loads task into the draft and makes it the edit target. The
// cached copy is used as is.
func (c *Controller) BeginEdit(task domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = &task
	c.draft = Draft{Title: task.Title, Description: task.Description}
}

// CancelEdit clears the edit target and the draft.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
	c.draft = Draft{}
}

// RequestDelete deletes the task with id once confirm approves, then
// refreshes. A nil confirm counts as declined.
func (c *Controller) RequestDelete(ctx context.Context, id string, confirm Confirmer) error {
	if confirm == nil || !confirm(id) {
		return ErrDeleteNotConfirmed
	}

	if _, err := c.api.DeleteTask(ctx, id); err != nil {
		c.fail(msgDeleteFailed, err)
		return err
	}

	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: msgTaskDeleted})
	return c.Refresh(ctx)
}

// Filter returns the cached tasks whose title or description contains text,
// ignoring case. An empty text returns every cached task.
func (c *Controller) Filter(text string) []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Task, 0, len(c.tasks))
	for _, task := range c.tasks {
		if task.Matches(text) {
			out = append(out, task)
		}
	}
	return out
}

// Tasks returns a copy of the cache.
func (c *Controller) Tasks() []domain.Task {
	return c.Filter("")
}

// Task looks up a cached task by id.
func (c *Controller) Task(id string) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, task := range c.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := State{Mode: Idle, Draft: c.draft}
	if c.target != nil {
		target := *c.target
		state.Mode = Editing
		state.Target = &target
	}
	return state
}

func (c *Controller) fail(message string, err error) {
	c.logger.Warn(message, zap.Error(err))
	c.notifier.Notify(Notice{Level: NoticeError, Message: message, Err: err})
}
