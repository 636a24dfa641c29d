package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

type PostService struct {
	db *database.DB
}

func NewPostService(db *database.DB) *PostService {
	return &PostService{db: db}
}

const postColumns = `id, author_id, title, body, tags, created_at, updated_at`

func scanPost(row pgx.Row, p *models.ResearchPost) error {
	return row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, title, body string, tags []string) (*models.ResearchPost, error) {
	if tags == nil {
		tags = []string{}
	}
	var post models.ResearchPost
	err := scanPost(s.db.Pool.QueryRow(ctx, `
		INSERT INTO research_posts (author_id, title, body, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING `+postColumns+`
	`, authorID, title, body, tags), &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) GetByID(ctx context.Context, postID uuid.UUID) (*models.ResearchPost, error) {
	var post models.ResearchPost
	var author models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT p.id, p.author_id, p.title, p.body, p.tags, p.created_at, p.updated_at,
		       u.id, u.name, u.avatar_url, u.institution
		FROM research_posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1
	`, postID).Scan(
		&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.Tags,
		&post.CreatedAt, &post.UpdatedAt,
		&author.ID, &author.Name, &author.AvatarURL, &author.Institution,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.Author = &author
	return &post, nil
}

// List returns the public feed, newest first, optionally filtered to posts
// carrying the given tag.
func (s *PostService) List(ctx context.Context, tag string, limit, offset int) ([]models.ResearchPost, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.author_id, p.title, p.body, p.tags, p.created_at, p.updated_at,
		       u.id, u.name, u.avatar_url, u.institution
		FROM research_posts p
		JOIN users u ON p.author_id = u.id
		WHERE $1 = '' OR $1 = ANY(p.tags)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, tag, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.ResearchPost
	for rows.Next() {
		var post models.ResearchPost
		var author models.User
		if err := rows.Scan(
			&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.Tags,
			&post.CreatedAt, &post.UpdatedAt,
			&author.ID, &author.Name, &author.AvatarURL, &author.Institution,
		); err != nil {
			return nil, err
		}
		post.Author = &author
		posts = append(posts, post)
	}
	return posts, nil
}

// Update only touches rows authored by authorID; a miss on someone else's
// post reads the same as a missing post.
func (s *PostService) Update(ctx context.Context, postID, authorID uuid.UUID, title, body *string, tags []string) (*models.ResearchPost, error) {
	var post models.ResearchPost
	err := scanPost(s.db.Pool.QueryRow(ctx, `
		UPDATE research_posts SET
			title = COALESCE($1, title),
			body = COALESCE($2, body),
			tags = COALESCE($3, tags),
			updated_at = NOW()
		WHERE id = $4 AND author_id = $5
		RETURNING `+postColumns+`
	`, title, body, tags, postID, authorID), &post)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Delete(ctx context.Context, postID, authorID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM research_posts WHERE id = $1 AND author_id = $2
	`, postID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}
