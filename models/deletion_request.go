package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DeletionStatus is the state of an account deletion request.
type DeletionStatus string

const (
	DeletionPending   DeletionStatus = "pending"
	DeletionCompleted DeletionStatus = "completed"
	DeletionRejected  DeletionStatus = "rejected"
)

// Valid reports whether s is a known state.
func (s DeletionStatus) Valid() bool {
	return s == DeletionPending || s == DeletionCompleted || s == DeletionRejected
}

// DeletionRequest asks an admin to erase a member's account. Email is a
// snapshot so the confirmation can be sent after the user row is gone.
type DeletionRequest struct {
	ID          string         `json:"id"`
	UserID      *string        `json:"user_id"`
	Email       string         `json:"email"`
	Reason      *string        `json:"reason"`
	Status      DeletionStatus `json:"status"`
	AdminNote   *string        `json:"admin_note"`
	ProcessedBy *string        `json:"processed_by"`
	ProcessedAt *time.Time     `json:"processed_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateDeletionRequest is the member's request payload.
type CreateDeletionRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the optional reason.
func (r *CreateDeletionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if utf8.RuneCountInString(r.Reason) > 2000 {
		return fmt.Errorf("reason must be at most 2000 characters")
	}
	return nil
}

// ProcessDeletionRequest is an admin decision.
type ProcessDeletionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// Validate checks the note length.
func (r *ProcessDeletionRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if utf8.RuneCountInString(r.Note) > 2000 {
		return fmt.Errorf("note must be at most 2000 characters")
	}
	return nil
}
