package dto

import (
	"time"

	"github.com/google/uuid"
)

type AddResearchItemRequest struct {
	Title     string  `json:"title"`
	SourceURL *string `json:"source_url,omitempty"`
	Abstract  string  `json:"abstract"`
}

type UpdateResearchItemRequest struct {
	Title     *string `json:"title,omitempty"`
	SourceURL *string `json:"source_url,omitempty"`
	Abstract  *string `json:"abstract,omitempty"`
}

type ResearchItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	SourceURL *string   `json:"source_url,omitempty"`
	Abstract  string    `json:"abstract"`
	Position  int       `json:"position"`
	AddedBy   uuid.UUID `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
