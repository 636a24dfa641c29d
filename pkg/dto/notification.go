package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
