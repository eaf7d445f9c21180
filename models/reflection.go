package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Reflection is a member's end-of-week review. There is at most one per
// member and week. Shared reflections are visible to the member's group.
type Reflection struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	WeekStart  string    `json:"week_start"`
	Wins       string    `json:"wins"`
	Challenges string    `json:"challenges"`
	NextFocus  string    `json:"next_focus"`
	Rating     int       `json:"rating"`
	Shared     bool      `json:"shared"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpsertReflectionRequest writes the reflection of one week.
type UpsertReflectionRequest struct {
	Wins       string `json:"wins"`
	Challenges string `json:"challenges"`
	NextFocus  string `json:"next_focus"`
	Rating     int    `json:"rating"`
	Shared     bool   `json:"shared"`
}

// Validate checks the rating and text lengths.
func (r *UpsertReflectionRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	r.Wins = strings.TrimSpace(r.Wins)
	r.Challenges = strings.TrimSpace(r.Challenges)
	r.NextFocus = strings.TrimSpace(r.NextFocus)
	for _, f := range []struct{ name, value string }{
		{"wins", r.Wins},
		{"challenges", r.Challenges},
		{"next focus", r.NextFocus},
	} {
		if utf8.RuneCountInString(f.value) > 5000 {
			return fmt.Errorf("%s must be at most 5000 characters", f.name)
		}
	}
	return nil
}

// DashboardSummary is the headline numbers of a member's week.
type DashboardSummary struct {
	Week                string  `json:"week"`
	ActiveGoals         int     `json:"active_goals"`
	TasksTotal          int     `json:"tasks_total"`
	TasksCompleted      int     `json:"tasks_completed"`
	CompletionRate      float64 `json:"completion_rate"`
	ReflectionSubmitted bool    `json:"reflection_submitted"`
}

// TaskCounts is the total and completed number of tasks in a week.
type TaskCounts struct {
	Total     int
	Completed int
}
