package view

import (
	"math"
	"time"

	"github.com/gurkanbulca/focusflow/internal/models"
)

// Summary backs the statistics panel.
type Summary struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Active         int `json:"active"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// Stats summarizes tasks as of now. A task is overdue when it is open and its
// due date is an earlier calendar day than today.
func Stats(tasks []*models.Task, now time.Time) Summary {
	today := models.DateOf(now)

	var s Summary
	for _, t := range tasks {
		if t == nil {
			continue
		}
		s.Total++
		if t.Completed {
			s.Completed++
			continue
		}
		s.Active++
		if t.DueDate != nil && t.DueDate.Before(today) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
