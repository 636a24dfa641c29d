package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	Institution       *string   `json:"institution,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	ResearchInterests []string  `json:"research_interests"`
	CreatedAt         time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Name              *string  `json:"name,omitempty"`
	Institution       *string  `json:"institution,omitempty"`
	Bio               *string  `json:"bio,omitempty"`
	ResearchInterests []string `json:"research_interests,omitempty"`
}

type MatchResponse struct {
	User            UserResponse `json:"user"`
	SharedInterests int          `json:"shared_interests"`
}
