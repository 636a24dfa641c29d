package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectMessage struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sender    *User     `json:"sender,omitempty"`
}
