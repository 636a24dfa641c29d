package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

type FileService struct {
	db *database.DB
}

func NewFileService(db *database.DB) *FileService {
	return &FileService{db: db}
}

const fileColumns = `id, project_id, name, content_type, size_bytes, storage_key, uploaded_by, created_at`

func scanFile(row pgx.Row, f *models.ProjectFile) error {
	return row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.ContentType,
		&f.SizeBytes, &f.StorageKey, &f.UploadedBy, &f.CreatedAt)
}

// Register records metadata for an uploaded blob. The storage key is derived
// here so callers never pick their own paths.
func (s *FileService) Register(ctx context.Context, projectID uuid.UUID, name, contentType string, sizeBytes int64, uploadedBy uuid.UUID) (*models.ProjectFile, error) {
	storageKey := fmt.Sprintf("projects/%s/%s/%s", projectID, uuid.New(), name)

	var file models.ProjectFile
	err := scanFile(s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_files (project_id, name, content_type, size_bytes, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+fileColumns+`
	`, projectID, name, contentType, sizeBytes, storageKey, uploadedBy), &file)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *FileService) GetByID(ctx context.Context, projectID, fileID uuid.UUID) (*models.ProjectFile, error) {
	var file models.ProjectFile
	err := scanFile(s.db.Pool.QueryRow(ctx, `
		SELECT `+fileColumns+`
		FROM project_files WHERE id = $1 AND project_id = $2
	`, fileID, projectID), &file)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (s *FileService) List(ctx context.Context, projectID uuid.UUID) ([]models.ProjectFile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+fileColumns+`
		FROM project_files WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.ProjectFile
	for rows.Next() {
		var file models.ProjectFile
		if err := scanFile(rows, &file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (s *FileService) Delete(ctx context.Context, projectID, fileID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM project_files WHERE id = $1 AND project_id = $2
	`, fileID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}
