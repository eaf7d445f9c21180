package models

import (
	"fmt"
	"strings"
	"time"
)

// Template keys seeded by migrations.
const (
	TemplateApplicationReceived   = "application_received"
	TemplateApplicationApproved   = "application_approved"
	TemplateApplicationRejected   = "application_rejected"
	TemplateApplicationWaitlisted = "application_waitlisted"
	TemplatePasswordReset         = "password_reset"
	TemplateNewQuestion           = "qa_new_question"
	TemplateNewAnswer             = "qa_new_answer"
	TemplateDigest                = "notification_digest"
	TemplateDeletionProcessed     = "deletion_processed"
	TemplateReflectionShared      = "group_reflection_shared"
)

// ApplicationTemplateKey returns the template sent when an application
// moves to status.
func ApplicationTemplateKey(status ApplicationStatus) string {
	return "application_" + string(status)
}

// EmailTemplate is an admin-editable transactional email.
type EmailTemplate struct {
	Key         string    `json:"key"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Description string    `json:"description"`
	UpdatedBy   *string   `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RenderedEmail is a template with its placeholders filled in.
type RenderedEmail struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// UpdateTemplateRequest replaces a template's subject and body.
type UpdateTemplateRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate requires both fields.
func (r *UpdateTemplateRequest) Validate() error {
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if len(r.Subject) > 300 {
		return fmt.Errorf("subject must be at most 300 characters")
	}
	if strings.TrimSpace(r.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if len(r.Body) > 100_000 {
		return fmt.Errorf("body is too large")
	}
	return nil
}

// PreviewTemplateRequest renders a template with sample variables. Subject
// and Body, when set, preview unsaved edits.
type PreviewTemplateRequest struct {
	Subject *string           `json:"subject"`
	Body    *string           `json:"body"`
	Vars    map[string]string `json:"vars"`
}
