package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectFile is the stored metadata for an uploaded file. The blob itself
// lives in external storage under StorageKey.
type ProjectFile struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
