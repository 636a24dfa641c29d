package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content"`
}

type MessageSender struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type MessageResponse struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID uuid.UUID      `json:"project_id"`
	SenderID  uuid.UUID      `json:"sender_id"`
	Content   string         `json:"content"`
	Sender    *MessageSender `json:"sender,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
