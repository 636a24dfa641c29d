package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	NotificationInviteReceived  = "invite_received"
	NotificationInviteAccepted  = "invite_accepted"
	NotificationInviteDeclined  = "invite_declined"
	NotificationRemovedFromProj = "removed_from_project"
	NotificationRoleChanged     = "role_changed"
)
