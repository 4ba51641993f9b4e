package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority of a task.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Normalize maps unknown or empty priorities to medium.
func (p Priority) Normalize() Priority {
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Weight is the sort ordinal: high=3, medium=2, low=1. Unknown values weigh as medium.
func (p Priority) Weight() int {
	switch p.Normalize() {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// ParsePriority parses a priority name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidationFailed, s)
	}
	return p, nil
}

// Task is the canonical in-memory representation of a to-do item.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *Date      `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

// Matches reports whether the lowercase query is a substring of the title or description.
func (t *Task) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// TaskInput holds the fields accepted on creation.
type TaskInput struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *Date
}

// TaskPatch holds optional field updates. Nil means "leave unchanged".
// ClearDueDate removes the due date, since a nil DueDate can't express that.
type TaskPatch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *Priority
	DueDate      *Date
	ClearDueDate bool
	CompletedAt  *time.Time
}

// NewTask builds a fresh task from input. ID is assigned by the store.
func NewTask(id int64, in TaskInput, now time.Time) (*Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	t := &Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority.Normalize(),
		CreatedAt:   now,
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	return t, nil
}

// Apply merges the patch onto t. ID and CreatedAt never change.
// Completion transitions keep CompletedAt set iff Completed is true.
func (t *Task) Apply(p TaskPatch, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = p.Priority.Normalize()
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Completed != nil {
		switch {
		case *p.Completed && !t.Completed:
			ts := now
			if p.CompletedAt != nil {
				ts = *p.CompletedAt
			}
			t.CompletedAt = &ts
		case !*p.Completed:
			t.CompletedAt = nil
		}
		t.Completed = *p.Completed
	}
	return nil
}

// Normalize restores the completed/completedAt pairing on data read from storage.
func (t *Task) Normalize(now time.Time) {
	t.Priority = t.Priority.Normalize()
	if t.Completed && t.CompletedAt == nil {
		ts := now
		t.CompletedAt = &ts
	}
	if !t.Completed {
		t.CompletedAt = nil
	}
}

// Validate rejects patches the store must not accept.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	return nil
}
