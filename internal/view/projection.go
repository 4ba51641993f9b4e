// Package view derives what the task list shows from the full collection and
// the current UI state. Everything here is pure.
package view

import (
	"sort"
	"strings"

	"github.com/gurkanbulca/focusflow/internal/models"
)

// Filter is the key of a filter chip.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterHigh      Filter = "high"
	FilterMedium    Filter = "medium"
	FilterLow       Filter = "low"
)

// Filters lists every chip in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted, FilterHigh, FilterMedium, FilterLow}

// ParseFilter maps a query value to a Filter. Unknown values are FilterAll.
func ParseFilter(s string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Filters {
		if f == known {
			return f
		}
	}
	return FilterAll
}

// Match reports whether t passes the filter.
func (f Filter) Match(t *models.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterHigh, FilterMedium, FilterLow:
		return t.Priority.Normalize() == models.Priority(f)
	default:
		return true
	}
}

// State is the UI state a projection depends on. EditingID is zero when no
// task is being edited.
type State struct {
	SearchTerm   string
	ActiveFilter Filter
	EditingID    int64
}

// WithSearch returns a copy of s with a new search term.
func (s State) WithSearch(term string) State {
	s.SearchTerm = term
	return s
}

// WithFilter returns a copy of s with a new active filter.
func (s State) WithFilter(f Filter) State {
	s.ActiveFilter = f
	return s
}

// WithEditing returns a copy of s editing the given task.
func (s State) WithEditing(id int64) State {
	s.EditingID = id
	return s
}

// Projection is the visible list plus global chip counts.
type Projection struct {
	Visible []*models.Task `json:"visible"`
	Counts  Counts         `json:"counts"`
}

// Counts holds one count per filter key.
type Counts map[Filter]int

// Project searches, filters and sorts tasks for display. Counts always cover
// the whole collection. The input slice is not modified.
func Project(tasks []*models.Task, state State) Projection {
	term := strings.TrimSpace(state.SearchTerm)

	visible := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if term != "" && !t.Matches(term) {
			continue
		}
		if !state.ActiveFilter.Match(t) {
			continue
		}
		visible = append(visible, t)
	}
	Sort(visible)

	return Projection{Visible: visible, Counts: Count(tasks)}
}

// Count tallies tasks under every filter key.
func Count(tasks []*models.Task) Counts {
	counts := make(Counts, len(Filters))
	for _, f := range Filters {
		counts[f] = 0
	}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		for _, f := range Filters {
			if f.Match(t) {
				counts[f]++
			}
		}
	}
	return counts
}

// Sort orders tasks in place: incomplete first, then priority high to low,
// then due date ascending with undated last, then newest first. Ties keep
// their input order.
func Sort(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}

func less(a, b *models.Task) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
		return wa > wb
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(b.DueDate.Time):
		return a.DueDate.Before(*b.DueDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
