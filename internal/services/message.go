package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

type MessageService struct {
	db *database.DB
}

func NewMessageService(db *database.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) Send(ctx context.Context, projectID, senderID uuid.UUID, content string) (*models.ProjectMessage, error) {
	var msg models.ProjectMessage
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_messages (project_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, project_id, sender_id, content, created_at
	`, projectID, senderID, content).Scan(
		&msg.ID, &msg.ProjectID, &msg.SenderID, &msg.Content, &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns the newest messages first; before bounds the page to messages
// older than the given message when paging backwards through history.
func (s *MessageService) List(ctx context.Context, projectID uuid.UUID, before *uuid.UUID, limit int) ([]models.ProjectMessage, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT m.id, m.project_id, m.sender_id, m.content, m.created_at,
		       u.id, u.name, u.avatar_url
		FROM project_messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.project_id = $1
		  AND ($2::uuid IS NULL OR m.created_at < (SELECT created_at FROM project_messages WHERE id = $2))
		ORDER BY m.created_at DESC
		LIMIT $3
	`, projectID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ProjectMessage
	for rows.Next() {
		var msg models.ProjectMessage
		var sender models.User
		if err := rows.Scan(
			&msg.ID, &msg.ProjectID, &msg.SenderID, &msg.Content, &msg.CreatedAt,
			&sender.ID, &sender.Name, &sender.AvatarURL,
		); err != nil {
			return nil, err
		}
		msg.Sender = &sender
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
