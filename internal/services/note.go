package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

var ErrNoteNotFound = errors.New("note not found")

type NoteService struct {
	db *database.DB
}

func NewNoteService(db *database.DB) *NoteService {
	return &NoteService{db: db}
}

const noteColumns = `id, project_id, title, content, created_by, updated_by, created_at, updated_at`

func scanNote(row pgx.Row, n *models.Note) error {
	return row.Scan(&n.ID, &n.ProjectID, &n.Title, &n.Content,
		&n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt)
}

func (s *NoteService) Create(ctx context.Context, projectID uuid.UUID, title, content string, createdBy uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := scanNote(s.db.Pool.QueryRow(ctx, `
		INSERT INTO notes (project_id, title, content, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+noteColumns+`
	`, projectID, title, content, createdBy), &note)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) GetByID(ctx context.Context, projectID, noteID uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := scanNote(s.db.Pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes WHERE id = $1 AND project_id = $2
	`, noteID, projectID), &note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) List(ctx context.Context, projectID uuid.UUID) ([]models.Note, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes WHERE project_id = $1
		ORDER BY updated_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err := scanNote(rows, &note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func (s *NoteService) Update(ctx context.Context, projectID, noteID uuid.UUID, title, content *string, updatedBy uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := scanNote(s.db.Pool.QueryRow(ctx, `
		UPDATE notes SET
			title = COALESCE($1, title),
			content = COALESCE($2, content),
			updated_by = $3,
			updated_at = NOW()
		WHERE id = $4 AND project_id = $5
		RETURNING `+noteColumns+`
	`, title, content, updatedBy, noteID, projectID), &note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) Delete(ctx context.Context, projectID, noteID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM notes WHERE id = $1 AND project_id = $2
	`, noteID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}
