package models

import (
	"fmt"
	"time"
)

// EmailFrequency controls how a member receives notification emails.
type EmailFrequency string

const (
	FrequencyInstant EmailFrequency = "instant"
	FrequencyDigest  EmailFrequency = "digest"
	FrequencyOff     EmailFrequency = "off"
)

// Valid reports whether f is a known frequency.
func (f EmailFrequency) Valid() bool {
	return f == FrequencyInstant || f == FrequencyDigest || f == FrequencyOff
}

// NotificationKind is the category of a notification. Each kind can be
// switched off on its own.
type NotificationKind string

const (
	KindQuestion      NotificationKind = "question"
	KindAnswer        NotificationKind = "answer"
	KindGroupActivity NotificationKind = "group_activity"
)

// NotificationPreferences is a member's email settings.
type NotificationPreferences struct {
	UserID        string         `json:"user_id"`
	Frequency     EmailFrequency `json:"frequency"`
	Questions     bool           `json:"questions"`
	Answers       bool           `json:"answers"`
	GroupActivity bool           `json:"group_activity"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DefaultPreferences returns the settings of a member who never changed
// them: instant delivery with every kind enabled.
func DefaultPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:        userID,
		Frequency:     FrequencyInstant,
		Questions:     true,
		Answers:       true,
		GroupActivity: true,
	}
}

// Enabled reports whether kind is switched on.
func (p *NotificationPreferences) Enabled(kind NotificationKind) bool {
	switch kind {
	case KindQuestion:
		return p.Questions
	case KindAnswer:
		return p.Answers
	case KindGroupActivity:
		return p.GroupActivity
	}
	return false
}

// UpdatePreferencesRequest is a partial preferences update.
type UpdatePreferencesRequest struct {
	Frequency     *EmailFrequency `json:"frequency"`
	Questions     *bool           `json:"questions"`
	Answers       *bool           `json:"answers"`
	GroupActivity *bool           `json:"group_activity"`
}

// Validate checks the frequency when supplied.
func (r *UpdatePreferencesRequest) Validate() error {
	if r.Frequency != nil && !r.Frequency.Valid() {
		return fmt.Errorf("frequency must be one of instant, digest, off")
	}
	return nil
}

// Apply copies the supplied fields onto p.
func (r *UpdatePreferencesRequest) Apply(p *NotificationPreferences) {
	if r.Frequency != nil {
		p.Frequency = *r.Frequency
	}
	if r.Questions != nil {
		p.Questions = *r.Questions
	}
	if r.Answers != nil {
		p.Answers = *r.Answers
	}
	if r.GroupActivity != nil {
		p.GroupActivity = *r.GroupActivity
	}
}

// QueuedNotification is a notification held back for the next digest.
type QueuedNotification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Subject   string           `json:"subject"`
	Summary   string           `json:"summary"`
	Link      string           `json:"link"`
	CreatedAt time.Time        `json:"created_at"`
	SentAt    *time.Time       `json:"sent_at"`
}
