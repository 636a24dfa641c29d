package dto

import (
	"time"

	"github.com/google/uuid"
)

type ActivityResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Kind      string    `json:"kind"`
	Details   any       `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
