package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// Task represents a user-owned note with a title and an optional description.
type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskPatch carries the mutable subset of a task. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply copies the set fields of the patch onto the task.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}

// Validate rejects patches that would break the non-empty title rule.
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		return ValidateDescription(*p.Description)
	}
	return nil
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// NewTask builds a validated task owned by owner. The store assigns the ID.
func NewTask(owner, title, description string, now time.Time) (*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &Task{
		Owner:       owner,
		Title:       title,
		Description: description,
		CreatedAt:   now.UTC().Truncate(time.Millisecond),
	}, nil
}

func (t *Task) OwnedBy(owner string) bool {
	return t != nil && owner != "" && t.Owner == owner
}

// Matches reports whether query occurs in the title or description, ignoring case.
func (t Task) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}
