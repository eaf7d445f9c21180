package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ApplicationStatus is the review state of a membership application.
type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationRejected   ApplicationStatus = "rejected"
	ApplicationWaitlisted ApplicationStatus = "waitlisted"
)

// Valid reports whether s is one of the four review states.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected, ApplicationWaitlisted:
		return true
	}
	return false
}

// Application is a public membership application.
type Application struct {
	ID             string            `json:"id"`
	FullName       string            `json:"full_name"`
	Email          string            `json:"email"`
	Phone          *string           `json:"phone"`
	Location       *string           `json:"location"`
	Occupation     *string           `json:"occupation"`
	Motivation     string            `json:"motivation"`
	Commitment     string            `json:"commitment"`
	ReferralSource *string           `json:"referral_source"`
	Status         ApplicationStatus `json:"status"`
	AdminNotes     *string           `json:"admin_notes"`
	ReviewedBy     *string           `json:"reviewed_by"`
	ReviewedAt     *time.Time        `json:"reviewed_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SubmitApplicationRequest is the public application form.
type SubmitApplicationRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Location       string `json:"location"`
	Occupation     string `json:"occupation"`
	Motivation     string `json:"motivation"`
	Commitment     string `json:"commitment"`
	ReferralSource string `json:"referral_source"`
}

// Validate normalizes and checks the form.
func (r *SubmitApplicationRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if err := validateFullName(r.FullName); err != nil {
		return err
	}

	r.Email = NormalizeEmail(r.Email)
	if !ValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}

	r.Motivation = strings.TrimSpace(r.Motivation)
	if n := utf8.RuneCountInString(r.Motivation); n < 20 || n > 2000 {
		return fmt.Errorf("motivation must be between 20 and 2000 characters")
	}

	r.Commitment = strings.TrimSpace(r.Commitment)
	if n := utf8.RuneCountInString(r.Commitment); n < 1 || n > 500 {
		return fmt.Errorf("commitment must be between 1 and 500 characters")
	}

	r.Phone = strings.TrimSpace(r.Phone)
	r.Location = strings.TrimSpace(r.Location)
	r.Occupation = strings.TrimSpace(r.Occupation)
	r.ReferralSource = strings.TrimSpace(r.ReferralSource)
	for _, f := range []struct{ name, value string }{
		{"phone", r.Phone},
		{"location", r.Location},
		{"occupation", r.Occupation},
		{"referral source", r.ReferralSource},
	} {
		if utf8.RuneCountInString(f.value) > 200 {
			return fmt.Errorf("%s must be at most 200 characters", f.name)
		}
	}

	return nil
}

// ToApplication builds a pending application from the form.
func (r *SubmitApplicationRequest) ToApplication() *Application {
	return &Application{
		FullName:       r.FullName,
		Email:          r.Email,
		Phone:          optionalString(r.Phone),
		Location:       optionalString(r.Location),
		Occupation:     optionalString(r.Occupation),
		Motivation:     r.Motivation,
		Commitment:     r.Commitment,
		ReferralSource: optionalString(r.ReferralSource),
		Status:         ApplicationPending,
	}
}

// ReviewApplicationRequest is an admin decision on an application.
type ReviewApplicationRequest struct {
	Status ApplicationStatus `json:"status"`
	Notes  string            `json:"notes"`
}

// Validate checks the target status.
func (r *ReviewApplicationRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("status must be one of pending, approved, rejected, waitlisted")
	}
	r.Notes = strings.TrimSpace(r.Notes)
	if utf8.RuneCountInString(r.Notes) > 2000 {
		return fmt.Errorf("notes must be at most 2000 characters")
	}
	return nil
}

// ApplicationFilter narrows the admin application list.
type ApplicationFilter struct {
	Status ApplicationStatus
	Search string
	Limit  int
	Offset int
}

// Normalize clamps paging and validates the status.
func (f *ApplicationFilter) Normalize() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset, 50, 200)
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// clampPage applies the default and maximum page size.
func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
