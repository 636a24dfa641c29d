package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	Provider          string    `json:"provider"`
	ProviderID        string    `json:"-"`
	GlobalRole        string    `json:"global_role"`
	Institution       *string   `json:"institution,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	ResearchInterests []string  `json:"research_interests"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const (
	GlobalRoleUser  = "user"
	GlobalRoleAdmin = "admin"
)
