package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultGroupCapacity = 8
	MinGroupCapacity     = 2
	MaxGroupCapacity     = 50
)

// Group is an accountability group. A member belongs to at most one group.
type Group struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Capacity        int       `json:"capacity"`
	MeetingSchedule *string   `json:"meeting_schedule"`
	CreatedAt       time.Time `json:"created_at"`
	MemberCount     int       `json:"member_count"`
}

// GroupMember is a member row of a group.
type GroupMember struct {
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupDetail is a group with its roster, for admins.
type GroupDetail struct {
	Group
	Members []GroupMember `json:"members"`
}

// PeerProgress is one member's week as seen by their group.
type PeerProgress struct {
	UserID         string      `json:"user_id"`
	FullName       string      `json:"full_name"`
	ActiveGoals    []Goal      `json:"active_goals"`
	TasksTotal     int         `json:"tasks_total"`
	TasksCompleted int         `json:"tasks_completed"`
	Reflection     *Reflection `json:"reflection"`
}

// GroupView is the member-facing view of their own group for one week.
type GroupView struct {
	Group   Group          `json:"group"`
	Week    string         `json:"week"`
	Members []PeerProgress `json:"members"`
}

// CreateGroupRequest creates a group.
type CreateGroupRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Capacity        int    `json:"capacity"`
	MeetingSchedule string `json:"meeting_schedule"`
}

// Validate applies the capacity default and checks every field.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validateGroupName(r.Name); err != nil {
		return err
	}
	r.Description = strings.TrimSpace(r.Description)
	if utf8.RuneCountInString(r.Description) > 1000 {
		return fmt.Errorf("description must be at most 1000 characters")
	}
	if r.Capacity == 0 {
		r.Capacity = DefaultGroupCapacity
	}
	if err := validateCapacity(r.Capacity); err != nil {
		return err
	}
	r.MeetingSchedule = strings.TrimSpace(r.MeetingSchedule)
	if utf8.RuneCountInString(r.MeetingSchedule) > 200 {
		return fmt.Errorf("meeting schedule must be at most 200 characters")
	}
	return nil
}

// UpdateGroupRequest is a partial group update.
type UpdateGroupRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Capacity        *int    `json:"capacity"`
	MeetingSchedule *string `json:"meeting_schedule"`
}

// Validate checks the supplied fields.
func (r *UpdateGroupRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if err := validateGroupName(name); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		if utf8.RuneCountInString(desc) > 1000 {
			return fmt.Errorf("description must be at most 1000 characters")
		}
		r.Description = &desc
	}
	if r.Capacity != nil {
		if err := validateCapacity(*r.Capacity); err != nil {
			return err
		}
	}
	if r.MeetingSchedule != nil {
		sched := strings.TrimSpace(*r.MeetingSchedule)
		if utf8.RuneCountInString(sched) > 200 {
			return fmt.Errorf("meeting schedule must be at most 200 characters")
		}
		r.MeetingSchedule = &sched
	}
	return nil
}

// AddGroupMemberRequest places a member in a group.
type AddGroupMemberRequest struct {
	UserID string `json:"user_id"`
}

func validateGroupName(name string) error {
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return fmt.Errorf("group name must be between 2 and 100 characters")
	}
	return nil
}

func validateCapacity(c int) error {
	if c < MinGroupCapacity || c > MaxGroupCapacity {
		return fmt.Errorf("capacity must be between %d and %d", MinGroupCapacity, MaxGroupCapacity)
	}
	return nil
}
