package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.edu", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   "orcid",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, institution, research_interests)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'))
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID,
		user.Institution, user.ResearchInterests).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithInterests sets the user's research interests
func WithInterests(interests ...string) UserOption {
	return func(u *models.User) {
		u.ResearchInterests = interests
	}
}

// CreateProject creates a test project owned by the given user, with the
// owner's active membership row in place.
func (f *Fixtures) CreateProject(t *testing.T, owner *models.User, opts ...ProjectOption) *models.Project {
	t.Helper()
	f.counter++

	project := &models.Project{
		Title:      fmt.Sprintf("Test Project %d", f.counter),
		OwnerID:    owner.ID,
		Visibility: models.VisibilityPrivate,
		Tags:       []string{},
	}

	for _, opt := range opts {
		opt(project)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (title, description, owner_id, visibility, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, project.Title, project.Description, project.OwnerID, project.Visibility, project.Tags).Scan(
		&project.ID, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, project.ID, owner.ID, models.RoleOwner, models.StatusActive)
	if err != nil {
		t.Fatalf("failed to add owner as collaborator: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return project
}

// ProjectOption configures a test project
type ProjectOption func(*models.Project)

// WithTitle sets the project's title
func WithTitle(title string) ProjectOption {
	return func(p *models.Project) {
		p.Title = title
	}
}

// WithVisibility sets the project's visibility
func WithVisibility(visibility string) ProjectOption {
	return func(p *models.Project) {
		p.Visibility = visibility
	}
}

// AddCollaborator inserts a membership row with the given role and status.
func (f *Fixtures) AddCollaborator(t *testing.T, project *models.Project, user *models.User, role, status string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = $3, status = $4
	`, project.ID, user.ID, role, status)
	if err != nil {
		t.Fatalf("failed to add collaborator: %v", err)
	}
}
