package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))

	task, err := NewTask("u1", "Buy milk", "", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", task.Owner)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Empty(t, task.Description)
	assert.Empty(t, task.ID)
	assert.Equal(t, time.UTC, task.CreatedAt.Location())
	assert.Equal(t, 123*time.Millisecond, time.Duration(task.CreatedAt.Nanosecond()))
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		owner string
		title string
		desc  string
		want  error
	}{
		{name: "empty title", owner: "u1", title: "", want: ErrTitleRequired},
		{name: "blank title", owner: "u1", title: "   \t", want: ErrTitleRequired},
		{name: "long title", owner: "u1", title: strings.Repeat("a", MaxTitleLength+1), want: ErrTitleTooLong},
		{name: "long description", owner: "u1", title: "ok", desc: strings.Repeat("d", MaxDescriptionLength+1), want: ErrDescriptionTooLong},
		{name: "missing owner", owner: "", title: "ok", want: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.owner, tt.title, tt.desc, time.Now())
			assert.Nil(t, task)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	task := &Task{Title: "X", Description: "old"}

	TaskPatch{Description: strPtr("2%")}.Apply(task)
	assert.Equal(t, "X", task.Title)
	assert.Equal(t, "2%", task.Description)

	TaskPatch{Title: strPtr("Y"), Description: strPtr("")}.Apply(task)
	assert.Equal(t, "Y", task.Title)
	assert.Empty(t, task.Description)

	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, TaskPatch{Title: strPtr("")}.IsEmpty())
}

func TestTaskPatch_Validate(t *testing.T) {
	assert.NoError(t, TaskPatch{}.Validate())
	assert.NoError(t, TaskPatch{Description: strPtr("")}.Validate())
	assert.ErrorIs(t, TaskPatch{Title: strPtr("")}.Validate(), ErrTitleRequired)
	assert.True(t, IsDomainError(TaskPatch{Title: strPtr(" ")}.Validate(), ErrCodeInvalid))
}

func TestTask_Matches(t *testing.T) {
	task := Task{Title: "Buy Milk", Description: "two percent"}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"milk", true},
		{"MILK", true},
		{"Percent", true},
		{"bread", false},
		{"milk two", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Matches(tt.query))
		})
	}
}

func TestTask_OwnedBy(t *testing.T) {
	task := &Task{Owner: "u1"}
	assert.True(t, task.OwnedBy("u1"))
	assert.False(t, task.OwnedBy("u2"))
	assert.False(t, task.OwnedBy(""))

	var missing *Task
	assert.False(t, missing.OwnedBy("u1"))
}
