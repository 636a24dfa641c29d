package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

var ErrResearchItemNotFound = errors.New("research item not found")

type ResearchItemService struct {
	db *database.DB
}

func NewResearchItemService(db *database.DB) *ResearchItemService {
	return &ResearchItemService{db: db}
}

const researchItemColumns = `id, project_id, title, source_url, abstract, position, added_by, created_at, updated_at`

func scanResearchItem(row pgx.Row, item *models.ResearchItem) error {
	return row.Scan(&item.ID, &item.ProjectID, &item.Title, &item.SourceURL,
		&item.Abstract, &item.Position, &item.AddedBy, &item.CreatedAt, &item.UpdatedAt)
}

// Add appends the item at the end of the project's reading list; the position
// is computed inside the INSERT.
func (s *ResearchItemService) Add(ctx context.Context, projectID uuid.UUID, title string, sourceURL *string, abstract string, addedBy uuid.UUID) (*models.ResearchItem, error) {
	var item models.ResearchItem
	err := scanResearchItem(s.db.Pool.QueryRow(ctx, `
		INSERT INTO research_items (project_id, title, source_url, abstract, position, added_by)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position) + 1, 0), $5
		FROM research_items WHERE project_id = $1
		RETURNING `+researchItemColumns+`
	`, projectID, title, sourceURL, abstract, addedBy), &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ResearchItemService) GetByID(ctx context.Context, projectID, itemID uuid.UUID) (*models.ResearchItem, error) {
	var item models.ResearchItem
	err := scanResearchItem(s.db.Pool.QueryRow(ctx, `
		SELECT `+researchItemColumns+`
		FROM research_items WHERE id = $1 AND project_id = $2
	`, itemID, projectID), &item)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResearchItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *ResearchItemService) List(ctx context.Context, projectID uuid.UUID) ([]models.ResearchItem, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+researchItemColumns+`
		FROM research_items WHERE project_id = $1
		ORDER BY position, created_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ResearchItem
	for rows.Next() {
		var item models.ResearchItem
		if err := scanResearchItem(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *ResearchItemService) Update(ctx context.Context, projectID, itemID uuid.UUID, title, sourceURL, abstract *string) (*models.ResearchItem, error) {
	var item models.ResearchItem
	err := scanResearchItem(s.db.Pool.QueryRow(ctx, `
		UPDATE research_items SET
			title = COALESCE($1, title),
			source_url = COALESCE($2, source_url),
			abstract = COALESCE($3, abstract),
			updated_at = NOW()
		WHERE id = $4 AND project_id = $5
		RETURNING `+researchItemColumns+`
	`, title, sourceURL, abstract, itemID, projectID), &item)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResearchItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *ResearchItemService) Delete(ctx context.Context, projectID, itemID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM research_items WHERE id = $1 AND project_id = $2
	`, itemID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResearchItemNotFound
	}
	return nil
}
