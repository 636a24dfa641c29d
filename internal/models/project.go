package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Visibility  string    `json:"visibility"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

func (p *Project) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}
