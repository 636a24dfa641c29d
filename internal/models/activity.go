package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityDetails is the typed payload of an activity entry. Each action kind
// has its own struct; the JSON boundary carries the kind alongside the details.
type ActivityDetails interface {
	ActivityKind() string
}

type ActivityEntry struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Kind      string          `json:"kind"`
	Details   ActivityDetails `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

type TaskCreatedDetails struct {
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
}

type TaskStatusChangedDetails struct {
	TaskID    uuid.UUID `json:"task_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
}

type NoteCreatedDetails struct {
	NoteID uuid.UUID `json:"note_id"`
	Title  string    `json:"title"`
}

type FileUploadedDetails struct {
	FileID uuid.UUID `json:"file_id"`
	Name   string    `json:"name"`
}

type ItemAddedDetails struct {
	ItemID uuid.UUID `json:"item_id"`
	Title  string    `json:"title"`
}

type CollaboratorInvitedDetails struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

type CollaboratorRespondedDetails struct {
	UserID uuid.UUID `json:"user_id"`
	Status string    `json:"status"`
}

type CollaboratorRemovedDetails struct {
	UserID uuid.UUID `json:"user_id"`
	Left   bool      `json:"left"`
}

type RoleChangedDetails struct {
	UserID  uuid.UUID `json:"user_id"`
	OldRole string    `json:"old_role"`
	NewRole string    `json:"new_role"`
}

func (TaskCreatedDetails) ActivityKind() string           { return "task_created" }
func (TaskStatusChangedDetails) ActivityKind() string     { return "task_status_changed" }
func (NoteCreatedDetails) ActivityKind() string           { return "note_created" }
func (FileUploadedDetails) ActivityKind() string          { return "file_uploaded" }
func (ItemAddedDetails) ActivityKind() string             { return "item_added" }
func (CollaboratorInvitedDetails) ActivityKind() string   { return "collaborator_invited" }
func (CollaboratorRespondedDetails) ActivityKind() string { return "collaborator_responded" }
func (CollaboratorRemovedDetails) ActivityKind() string   { return "collaborator_removed" }
func (RoleChangedDetails) ActivityKind() string           { return "role_changed" }

// DecodeActivityDetails turns a stored (kind, JSONB) pair back into its
// concrete details struct.
func DecodeActivityDetails(kind string, raw []byte) (ActivityDetails, error) {
	var details ActivityDetails
	switch kind {
	case "task_created":
		details = &TaskCreatedDetails{}
	case "task_status_changed":
		details = &TaskStatusChangedDetails{}
	case "note_created":
		details = &NoteCreatedDetails{}
	case "file_uploaded":
		details = &FileUploadedDetails{}
	case "item_added":
		details = &ItemAddedDetails{}
	case "collaborator_invited":
		details = &CollaboratorInvitedDetails{}
	case "collaborator_responded":
		details = &CollaboratorRespondedDetails{}
	case "collaborator_removed":
		details = &CollaboratorRemovedDetails{}
	case "role_changed":
		details = &RoleChangedDetails{}
	default:
		return nil, fmt.Errorf("unknown activity kind %q", kind)
	}
	if err := json.Unmarshal(raw, details); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", kind, err)
	}
	return details, nil
}
