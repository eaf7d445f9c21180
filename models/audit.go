package models

import "time"

// Audit actions.
const (
	AuditApplicationReview = "application.review"
	AuditGroupCreate       = "group.create"
	AuditGroupUpdate       = "group.update"
	AuditGroupDelete       = "group.delete"
	AuditGroupMemberAdd    = "group.member_add"
	AuditGroupMemberRemove = "group.member_remove"
	AuditTemplateUpdate    = "template.update"
	AuditDeletionProcess   = "deletion.process"
	AuditMemberRole        = "member.role"
)

// AuditEntry records an administrative action.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditFilter narrows the audit log listing.
type AuditFilter struct {
	Action     string
	ActorID    string
	EntityType string
	Limit      int
	Offset     int
}

// Normalize clamps paging.
func (f *AuditFilter) Normalize() {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset, 100, 500)
}
