package repository

import (
	"time"

	"github.com/gurkanbulca/focusflow/internal/models"
)

// SeedTasks is the built-in dataset used when no snapshot exists.
func SeedTasks(now time.Time) []*models.Task {
	today := models.DateOf(now)
	day := func(offset int) *models.Date {
		d := models.Date{Time: today.AddDate(0, 0, offset)}
		return &d
	}
	completedAt := now.Add(-20 * time.Hour)

	return []*models.Task{
		{
			ID:          1,
			Title:       "Plan the week",
			Description: "Review the calendar and block time for deep work",
			Priority:    models.PriorityHigh,
			DueDate:     day(1),
			CreatedAt:   now.Add(-72 * time.Hour),
		},
		{
			ID:          2,
			Title:       "Reply to project emails",
			Description: "Clear the inbox before the Monday sync",
			Priority:    models.PriorityMedium,
			DueDate:     day(0),
			CreatedAt:   now.Add(-48 * time.Hour),
		},
		{
			ID:          3,
			Title:       "Renew gym membership",
			Priority:    models.PriorityLow,
			CreatedAt:   now.Add(-36 * time.Hour),
			Completed:   true,
			CompletedAt: &completedAt,
		},
		{
			ID:          4,
			Title:       "Prepare quarterly report",
			Description: "Collect metrics from the dashboard and draft the summary",
			Priority:    models.PriorityHigh,
			DueDate:     day(5),
			CreatedAt:   now.Add(-24 * time.Hour),
		},
		{
			ID:          5,
			Title:       "Buy groceries",
			Description: "Milk, eggs, coffee",
			Priority:    models.PriorityLow,
			CreatedAt:   now.Add(-2 * time.Hour),
		},
	}
}
