package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/fastygo/taskboard/domain"
)

// CreateTaskRequest is the body of POST /api/tasks. Ownership never comes from the body.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r UpdateTaskRequest) Patch() domain.TaskPatch {
	return domain.TaskPatch{Title: r.Title, Description: r.Description}
}

// Decode strictly unmarshals a single JSON object into dst, rejecting unknown
// fields and trailing data.
func Decode(body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", errors.New("empty body"))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", errors.New("trailing data after JSON object"))
	}
	return nil
}
