package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

type ActivityService struct {
	db *database.DB
}

func NewActivityService(db *database.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record appends an entry to the project's activity log. The details struct
// supplies both the kind and the JSONB payload, so a kind can never be stored
// with the wrong shape.
func (s *ActivityService) Record(ctx context.Context, projectID, actorID uuid.UUID, details models.ActivityDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode activity details: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO project_activity (project_id, actor_id, kind, details)
		VALUES ($1, $2, $3, $4)
	`, projectID, actorID, details.ActivityKind(), payload)
	return err
}

func (s *ActivityService) List(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]models.ActivityEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, project_id, actor_id, kind, details, created_at
		FROM project_activity
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var entry models.ActivityEntry
		var raw []byte
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.ActorID, &entry.Kind, &raw, &entry.CreatedAt); err != nil {
			return nil, err
		}
		details, err := models.DecodeActivityDetails(entry.Kind, raw)
		if err != nil {
			return nil, err
		}
		entry.Details = details
		entries = append(entries, entry)
	}
	return entries, nil
}
