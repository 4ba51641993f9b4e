// internal/repository/storage_mapping.go
package repository

import (
	"time"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

// StorageRecord is a task as the record-storage service holds it: every
// attribute under a plain and a suffixed spelling, plus Name mirroring title.
type StorageRecord struct {
	ID           int64      `json:"Id,omitempty"`
	Name         *string    `json:"Name,omitempty"`
	Title        *string    `json:"title,omitempty"`
	TitleC       *string    `json:"title_c,omitempty"`
	Description  *string    `json:"description,omitempty"`
	DescriptionC *string    `json:"description_c,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
	CompletedC   *bool      `json:"completed_c,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	PriorityC    *string    `json:"priority_c,omitempty"`
	DueDate      *string    `json:"dueDate,omitempty"`
	DueDateC     *string    `json:"due_date_c,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CompletedAtC *time.Time `json:"completed_at_c,omitempty"`
	CreatedOn    *time.Time `json:"CreatedOn,omitempty"`
}

// taskFields is the projection requested on every read.
var taskFields = []string{
	recordapi.FieldID,
	recordapi.FieldName,
	recordapi.FieldTitle,
	recordapi.FieldTitleC,
	recordapi.FieldDescription,
	recordapi.FieldDescriptionC,
	recordapi.FieldCompleted,
	recordapi.FieldCompletedC,
	recordapi.FieldPriority,
	recordapi.FieldPriorityC,
	recordapi.FieldDueDate,
	recordapi.FieldDueDateC,
	recordapi.FieldCompletedAt,
	recordapi.FieldCompletedAtC,
	recordapi.FieldCreatedOn,
}

// ToStorage writes the same value under both spellings of every field.
func ToStorage(t *models.Task) StorageRecord {
	title := t.Title
	description := t.Description
	completed := t.Completed
	priority := string(t.Priority.Normalize())
	createdOn := t.CreatedAt

	rec := StorageRecord{
		ID:           t.ID,
		Name:         &title,
		Title:        &title,
		TitleC:       &title,
		Description:  &description,
		DescriptionC: &description,
		Completed:    &completed,
		CompletedC:   &completed,
		Priority:     &priority,
		PriorityC:    &priority,
		CreatedOn:    &createdOn,
	}
	if t.DueDate != nil {
		due := t.DueDate.String()
		rec.DueDate = &due
		rec.DueDateC = &due
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		rec.CompletedAt = &at
		rec.CompletedAtC = &at
	}
	return rec
}

// FromStorage resolves each field: plain spelling if present, then the
// suffixed one, then a zero default.
func FromStorage(rec StorageRecord) *models.Task {
	t := &models.Task{
		ID:          rec.ID,
		Title:       firstString(rec.Title, rec.Name, rec.TitleC),
		Description: firstString(rec.Description, rec.DescriptionC),
		Completed:   firstBool(rec.Completed, rec.CompletedC),
		Priority:    models.Priority(firstString(rec.Priority, rec.PriorityC)).Normalize(),
		DueDate:     firstDate(rec.DueDate, rec.DueDateC),
		CompletedAt: firstTime(rec.CompletedAt, rec.CompletedAtC),
	}
	if rec.CreatedOn != nil {
		t.CreatedAt = *rec.CreatedOn
	}
	return t
}

// ToStoragePatch expands a patch into both spellings. Cleared values are sent
// as explicit nulls. completedAt is stamped with now when completing.
func ToStoragePatch(id int64, p models.TaskPatch, now time.Time) map[string]any {
	out := map[string]any{recordapi.FieldID: id}
	set := func(plain, suffixed string, v any) {
		out[plain] = v
		out[suffixed] = v
	}

	if p.Title != nil {
		set(recordapi.FieldTitle, recordapi.FieldTitleC, *p.Title)
		out[recordapi.FieldName] = *p.Title
	}
	if p.Description != nil {
		set(recordapi.FieldDescription, recordapi.FieldDescriptionC, *p.Description)
	}
	if p.Priority != nil {
		set(recordapi.FieldPriority, recordapi.FieldPriorityC, string(p.Priority.Normalize()))
	}
	if p.ClearDueDate {
		set(recordapi.FieldDueDate, recordapi.FieldDueDateC, nil)
	} else if p.DueDate != nil {
		set(recordapi.FieldDueDate, recordapi.FieldDueDateC, p.DueDate.String())
	}
	if p.Completed != nil {
		set(recordapi.FieldCompleted, recordapi.FieldCompletedC, *p.Completed)
		if *p.Completed {
			at := now
			if p.CompletedAt != nil {
				at = *p.CompletedAt
			}
			set(recordapi.FieldCompletedAt, recordapi.FieldCompletedAtC, at)
		} else {
			set(recordapi.FieldCompletedAt, recordapi.FieldCompletedAtC, nil)
		}
	}
	return out
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstDate(vals ...*string) *models.Date {
	for _, v := range vals {
		if v == nil || *v == "" {
			continue
		}
		if d, err := models.ParseDate(*v); err == nil {
			return &d
		}
	}
	return nil
}

func firstTime(vals ...*time.Time) *time.Time {
	for _, v := range vals {
		if v != nil && !v.IsZero() {
			t := *v
			return &t
		}
	}
	return nil
}
