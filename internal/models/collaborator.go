package models

import (
	"time"

	"github.com/google/uuid"
)

// Collaborator is a (project, user) membership record. There is exactly one
// per pair; re-invitations reuse the row by flipping it back to pending.
type Collaborator struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	User      *User      `json:"user,omitempty"`
	Project   *Project   `json:"project,omitempty"`
}

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusDeclined = "declined"
	StatusRevoked  = "revoked"
)

func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}
