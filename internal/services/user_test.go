package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/oauth"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db), mock
}

var userTestColumns = []string{"id", "email", "name", "avatar_url", "provider", "provider_id", "global_role",
	"institution", "bio", "research_interests", "created_at", "updated_at"}

func TestUserService_FindOrCreateFromOAuth_Existing(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	info := &oauth.UserInfo{
		ID:       "orcid-0000-0002-1825-0097",
		Email:    "ada@example.edu",
		Name:     "Ada Lovelace",
		Provider: "orcid",
	}

	rows := pgxmock.NewRows(userTestColumns).
		AddRow(userID, info.Email, info.Name, nil, "orcid", info.ID, "user",
			nil, nil, []string{}, now, now)

	mock.ExpectQuery(`FROM users`).
		WithArgs(info.Provider, info.ID).
		WillReturnRows(rows)

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, info.Email, user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindOrCreateFromOAuth_New(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	info := &oauth.UserInfo{
		ID:       "google-123",
		Email:    "grace@example.edu",
		Name:     "Grace Hopper",
		Provider: "google",
	}

	mock.ExpectQuery(`FROM users`).
		WithArgs(info.Provider, info.ID).
		WillReturnError(pgx.ErrNoRows)

	rows := pgxmock.NewRows(userTestColumns).
		AddRow(userID, info.Email, info.Name, nil, "google", info.ID, "user",
			nil, nil, []string{}, now, now)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(info.Email, info.Name, (*string)(nil), info.Provider, info.ID).
		WillReturnRows(rows)

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()
	institution := "MIT"
	interests := []string{"proteomics", "ml"}

	rows := pgxmock.NewRows(userTestColumns).
		AddRow(userID, "ada@example.edu", "Ada Lovelace", nil, "orcid", "x", "user",
			&institution, nil, interests, now, now)

	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs((*string)(nil), &institution, (*string)(nil), interests, userID).
		WillReturnRows(rows)

	user, err := svc.UpdateProfile(ctx, userID, nil, &institution, nil, interests)

	require.NoError(t, err)
	require.NotNil(t, user.Institution)
	assert.Equal(t, "MIT", *user.Institution)
	assert.Equal(t, interests, user.ResearchInterests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindMatches(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	cols := append(append([]string{}, userTestColumns...), "shared")
	rows := pgxmock.NewRows(cols).
		AddRow(uuid.New(), "a@example.edu", "A", nil, "google", "a", "user",
			nil, nil, []string{"ml", "nlp"}, now, now, 2).
		AddRow(uuid.New(), "b@example.edu", "B", nil, "google", "b", "user",
			nil, nil, []string{"ml"}, now, now, 1)

	mock.ExpectQuery(`FROM users u`).
		WithArgs(userID, 10).
		WillReturnRows(rows)

	users, shared, err := svc.FindMatches(ctx, userID, 10)

	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Len(t, shared, 2)
	assert.GreaterOrEqual(t, shared[0], shared[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}
