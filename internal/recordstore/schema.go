// Package recordstore is a small record-storage service: one SQL table per
// collection, queried and written through the recordapi wire contract.
package recordstore

import (
	"regexp"

	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

type kind int

const (
	kindInt kind = iota
	kindText
	kindBool
	kindDate
	kindTime
)

// column maps a wire field onto a table column.
type column struct {
	Field string
	Name  string
	Kind  kind
}

const (
	colID        = "id"
	colName      = "name"
	colTitle     = "title"
	colTitleC    = "title_c"
	colCreatedOn = "created_on"
)

var columns = []column{
	{recordapi.FieldID, colID, kindInt},
	{recordapi.FieldName, colName, kindText},
	{recordapi.FieldTitle, colTitle, kindText},
	{recordapi.FieldTitleC, colTitleC, kindText},
	{recordapi.FieldDescription, "description", kindText},
	{recordapi.FieldDescriptionC, "description_c", kindText},
	{recordapi.FieldCompleted, "completed", kindBool},
	{recordapi.FieldCompletedC, "completed_c", kindBool},
	{recordapi.FieldPriority, "priority", kindText},
	{recordapi.FieldPriorityC, "priority_c", kindText},
	{recordapi.FieldDueDate, "due_date", kindDate},
	{recordapi.FieldDueDateC, "due_date_c", kindDate},
	{recordapi.FieldCompletedAt, "completed_at", kindTime},
	{recordapi.FieldCompletedAtC, "completed_at_c", kindTime},
	{recordapi.FieldCreatedOn, colCreatedOn, kindTime},
}

var byField = func() map[string]column {
	m := make(map[string]column, len(columns))
	for _, c := range columns {
		m[c.Field] = c
	}
	return m
}()

func lookup(field string) (column, bool) {
	c, ok := byField[field]
	return c, ok
}

// columnsFor resolves a field projection. An empty projection selects all.
// Unknown fields are skipped.
func columnsFor(specs []recordapi.FieldSpec) []column {
	if len(specs) == 0 {
		return columns
	}
	out := make([]column, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		c, ok := lookup(s.Field.Name)
		if !ok || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	if !seen[colID] {
		out = append([]column{byField[recordapi.FieldID]}, out...)
	}
	return out
}

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidTableName reports whether name is safe to use as a table identifier.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
