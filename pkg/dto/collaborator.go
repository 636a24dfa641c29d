package dto

import (
	"time"

	"github.com/google/uuid"
)

type InviteCollaboratorRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RespondInvitationRequest struct {
	Accept bool `json:"accept"`
}

type UpdateCollaboratorRoleRequest struct {
	Role string `json:"role"`
}

type CollaboratorResponse struct {
	UserID    uuid.UUID     `json:"user_id"`
	Role      string        `json:"role"`
	Status    string        `json:"status"`
	InvitedBy *uuid.UUID    `json:"invited_by,omitempty"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type InvitationResponse struct {
	ProjectID    uuid.UUID `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	Role         string    `json:"role"`
	InvitedBy    *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
