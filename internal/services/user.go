package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/oauth"
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, email, name, avatar_url, provider, provider_id, global_role,
	institution, bio, research_interests, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.GlobalRole,
		&user.Institution, &user.Bio, &user.ResearchInterests,
		&user.CreatedAt, &user.UpdatedAt,
	)
}

func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID), &user)

	if err == nil {
		if user.Email != info.Email || user.Name != info.Name || (user.AvatarURL == nil && info.AvatarURL != "") {
			_, _ = s.db.Pool.Exec(ctx, `
				UPDATE users SET email = $1, name = $2, avatar_url = $3, updated_at = NOW()
				WHERE id = $4
			`, info.Email, info.Name, nullableString(info.AvatarURL), user.ID)
			user.Email = info.Email
			user.Name = info.Name
			if info.AvatarURL != "" {
				user.AvatarURL = &info.AvatarURL
			}
		}
		return &user, nil
	}

	err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns+`
	`, info.Email, info.Name, nullableString(info.AvatarURL), info.Provider, info.ID), &user)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1
	`, email), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes only the supplied fields; nil means leave as is.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, institution, bio *string, interests []string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			institution = COALESCE($2, institution),
			bio = COALESCE($3, bio),
			research_interests = COALESCE($4, research_interests),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+userColumns+`
	`, name, institution, bio, interests, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindMatches returns other users who share research interests with userID,
// most overlap first, along with the shared-interest count per user.
func (s *UserService) FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, []int, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.email, u.name, u.avatar_url, u.provider, u.provider_id, u.global_role,
		       u.institution, u.bio, u.research_interests, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM unnest(u.research_interests) AS interest
		        WHERE interest = ANY(me.research_interests)) AS shared
		FROM users u
		JOIN users me ON me.id = $1
		WHERE u.id != $1 AND u.research_interests && me.research_interests
		ORDER BY shared DESC, u.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var users []models.User
	var shared []int
	for rows.Next() {
		var user models.User
		var count int
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.AvatarURL,
			&user.Provider, &user.ProviderID, &user.GlobalRole,
			&user.Institution, &user.Bio, &user.ResearchInterests,
			&user.CreatedAt, &user.UpdatedAt, &count,
		); err != nil {
			return nil, nil, err
		}
		users = append(users, user)
		shared = append(shared, count)
	}
	return users, shared, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
