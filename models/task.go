package models

import (
	"fmt"
	"strings"
	"time"
)

// WeeklyTask is a concrete action planned for one week.
type WeeklyTask struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	GoalID      *string    `json:"goal_id"`
	Title       string     `json:"title"`
	WeekStart   string     `json:"week_start"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateTaskRequest creates a task. An empty week means the current week.
type CreateTaskRequest struct {
	Title     string `json:"title"`
	GoalID    string `json:"goal_id"`
	WeekStart string `json:"week_start"`
}

// Validate checks the title and, when given, the week.
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	r.GoalID = strings.TrimSpace(r.GoalID)
	if r.WeekStart != "" {
		week, err := ParseWeek(r.WeekStart)
		if err != nil {
			return err
		}
		r.WeekStart = week
	}
	return nil
}

// UpdateTaskRequest edits the title or the linked goal. An empty goal id
// unlinks the task.
type UpdateTaskRequest struct {
	Title  *string `json:"title"`
	GoalID *string `json:"goal_id"`
}

// Validate checks the supplied fields.
func (r *UpdateTaskRequest) Validate() error {
	if r.Title == nil && r.GoalID == nil {
		return fmt.Errorf("nothing to update")
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		r.Title = &title
	}
	if r.GoalID != nil {
		id := strings.TrimSpace(*r.GoalID)
		r.GoalID = &id
	}
	return nil
}
