package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalArchived  GoalStatus = "archived"
)

// Valid reports whether s is a known goal state.
func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalCompleted || s == GoalArchived
}

// Goal is a member's longer term objective.
type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	TargetDate  *string    `json:"target_date"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateGoalRequest creates a goal.
type CreateGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
}

// Validate checks the title and the optional target date.
func (r *CreateGoalRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	r.Description = strings.TrimSpace(r.Description)
	if utf8.RuneCountInString(r.Description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	r.TargetDate = strings.TrimSpace(r.TargetDate)
	if r.TargetDate != "" && !ValidDate(r.TargetDate) {
		return fmt.Errorf("target date must be in YYYY-MM-DD format")
	}
	return nil
}

// UpdateGoalRequest is a partial goal update. An empty string clears the
// description or target date.
type UpdateGoalRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	TargetDate  *string     `json:"target_date"`
	Status      *GoalStatus `json:"status"`
}

// Validate checks the supplied fields.
func (r *UpdateGoalRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		r.Title = &title
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		if utf8.RuneCountInString(desc) > 2000 {
			return fmt.Errorf("description must be at most 2000 characters")
		}
		r.Description = &desc
	}
	if r.TargetDate != nil {
		d := strings.TrimSpace(*r.TargetDate)
		if d != "" && !ValidDate(d) {
			return fmt.Errorf("target date must be in YYYY-MM-DD format")
		}
		r.TargetDate = &d
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("status must be one of active, completed, archived")
	}
	return nil
}

// Apply copies the supplied fields onto g.
func (r *UpdateGoalRequest) Apply(g *Goal) {
	if r.Title != nil {
		g.Title = *r.Title
	}
	if r.Description != nil {
		g.Description = optionalString(*r.Description)
	}
	if r.TargetDate != nil {
		g.TargetDate = optionalString(*r.TargetDate)
	}
	if r.Status != nil {
		g.Status = *r.Status
	}
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n < 1 || n > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}
	return nil
}
