package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/policy"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrNotCollaborator      = errors.New("not an active collaborator on this project")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrAlreadyMember        = errors.New("user is already an active collaborator")
	ErrInvitePending        = errors.New("user already has a pending invitation")
	ErrInviteNotFound       = errors.New("invitation not found")
	ErrLastOwner            = errors.New("project must keep at least one active owner")
	ErrRoleUnchanged        = errors.New("collaborator already has this role")
	ErrRoleNotAllowed       = errors.New("actor may not assign this role")
)

type ProjectService struct {
	db *database.DB
}

func NewProjectService(db *database.DB) *ProjectService {
	return &ProjectService{db: db}
}

const projectColumns = `id, title, description, owner_id, visibility, tags, created_at, updated_at`

func scanProject(row pgx.Row, p *models.Project) error {
	return row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.Visibility, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
}

const collaboratorColumns = `id, project_id, user_id, role, status, invited_by, created_at, updated_at`

func scanCollaborator(row pgx.Row, c *models.Collaborator) error {
	return row.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Role, &c.Status, &c.InvitedBy, &c.CreatedAt, &c.UpdatedAt)
}

// Create inserts the project and its owner membership in one transaction so a
// project never exists without an active owner.
func (s *ProjectService) Create(ctx context.Context, title, description, visibility string, tags []string, ownerID uuid.UUID) (*models.Project, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if tags == nil {
		tags = []string{}
	}

	var project models.Project
	err = scanProject(tx.QueryRow(ctx, `
		INSERT INTO projects (title, description, owner_id, visibility, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+projectColumns+`
	`, title, description, ownerID, visibility, tags), &project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, project.ID, ownerID, models.RoleOwner, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as collaborator: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &project, nil
}

func (s *ProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := scanProject(s.db.Pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE id = $1
	`, projectID), &project)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) GetUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.title, p.description, p.owner_id, p.visibility, p.tags, p.created_at, p.updated_at, pc.role
		FROM projects p
		JOIN project_collaborators pc ON p.id = pc.project_id
		WHERE pc.user_id = $1 AND pc.status = $2
		ORDER BY p.created_at DESC
	`, userID, models.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var projects []models.Project
	var roles []string
	for rows.Next() {
		var p models.Project
		var role string
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.Visibility, &p.Tags, &p.CreatedAt, &p.UpdatedAt, &role); err != nil {
			return nil, nil, err
		}
		projects = append(projects, p)
		roles = append(roles, role)
	}
	return projects, roles, nil
}

// Update changes only the supplied fields; nil leaves a field untouched.
func (s *ProjectService) Update(ctx context.Context, projectID uuid.UUID, title, description, visibility *string, tags []string) (*models.Project, error) {
	var project models.Project
	err := scanProject(s.db.Pool.QueryRow(ctx, `
		UPDATE projects SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			visibility = COALESCE($3, visibility),
			tags = COALESCE($4, tags),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+projectColumns+`
	`, title, description, visibility, tags, projectID), &project)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	return err
}

// GetActiveRole is the membership lookup every guard starts from. It returns
// ErrNotCollaborator when the project exists but the caller has no active
// membership, and ErrProjectNotFound when the project itself is gone.
func (s *ProjectService) GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM project_collaborators
		WHERE project_id = $1 AND user_id = $2 AND status = $3
	`, projectID, userID, models.StatusActive).Scan(&role)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var exists bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)
	`, projectID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", ErrProjectNotFound
	}
	return "", ErrNotCollaborator
}

func (s *ProjectService) GetCollaborator(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error) {
	var collab models.Collaborator
	err := scanCollaborator(s.db.Pool.QueryRow(ctx, `
		SELECT `+collaboratorColumns+`
		FROM project_collaborators
		WHERE project_id = $1 AND user_id = $2
	`, projectID, userID), &collab)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollaboratorNotFound
		}
		return nil, err
	}
	return &collab, nil
}

func (s *ProjectService) GetCollaborators(ctx context.Context, projectID uuid.UUID) ([]models.Collaborator, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pc.id, pc.project_id, pc.user_id, pc.role, pc.status, pc.invited_by, pc.created_at, pc.updated_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.provider_id, u.global_role,
		       u.institution, u.bio, u.research_interests, u.created_at, u.updated_at
		FROM project_collaborators pc
		JOIN users u ON pc.user_id = u.id
		WHERE pc.project_id = $1
		ORDER BY pc.created_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collabs []models.Collaborator
	for rows.Next() {
		var collab models.Collaborator
		var user models.User
		if err := rows.Scan(
			&collab.ID, &collab.ProjectID, &collab.UserID, &collab.Role, &collab.Status,
			&collab.InvitedBy, &collab.CreatedAt, &collab.UpdatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL,
			&user.Provider, &user.ProviderID, &user.GlobalRole,
			&user.Institution, &user.Bio, &user.ResearchInterests,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		collab.User = &user
		collabs = append(collabs, collab)
	}
	return collabs, nil
}

// Invite creates a pending membership, or revives a declined/revoked one, in a
// single conditional upsert. A row left untouched by the upsert means the user
// is already pending or active; that surfaces as a conflict.
func (s *ProjectService) Invite(ctx context.Context, projectID, inviterID, inviteeID uuid.UUID, role string) (*models.Collaborator, error) {
	var collab models.Collaborator
	err := scanCollaborator(s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			invited_by = EXCLUDED.invited_by,
			updated_at = NOW()
		WHERE project_collaborators.status IN ($6, $7)
		RETURNING `+collaboratorColumns+`
	`, projectID, inviteeID, role, models.StatusPending, inviterID,
		models.StatusDeclined, models.StatusRevoked), &collab)

	if err == nil {
		return &collab, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	existing, lookupErr := s.GetCollaborator(ctx, projectID, inviteeID)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.Status == models.StatusActive {
		return nil, ErrAlreadyMember
	}
	return nil, ErrInvitePending
}

// Respond resolves the caller's own pending invitation to active or declined.
func (s *ProjectService) Respond(ctx context.Context, projectID, userID uuid.UUID, status string) (*models.Collaborator, error) {
	var collab models.Collaborator
	err := scanCollaborator(s.db.Pool.QueryRow(ctx, `
		UPDATE project_collaborators SET status = $1, updated_at = NOW()
		WHERE project_id = $2 AND user_id = $3 AND status = $4
		RETURNING `+collaboratorColumns+`
	`, status, projectID, userID, models.StatusPending), &collab)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &collab, nil
}

func (s *ProjectService) GetPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.Collaborator, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pc.id, pc.project_id, pc.user_id, pc.role, pc.status, pc.invited_by, pc.created_at, pc.updated_at,
		       p.id, p.title, p.description, p.owner_id, p.visibility, p.tags, p.created_at, p.updated_at
		FROM project_collaborators pc
		JOIN projects p ON pc.project_id = p.id
		WHERE pc.user_id = $1 AND pc.status = $2
		ORDER BY pc.created_at DESC
	`, userID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Collaborator
	for rows.Next() {
		var collab models.Collaborator
		var project models.Project
		if err := rows.Scan(
			&collab.ID, &collab.ProjectID, &collab.UserID, &collab.Role, &collab.Status,
			&collab.InvitedBy, &collab.CreatedAt, &collab.UpdatedAt,
			&project.ID, &project.Title, &project.Description, &project.OwnerID,
			&project.Visibility, &project.Tags, &project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		collab.Project = &project
		invites = append(invites, collab)
	}
	return invites, nil
}

// UpdateRole changes a collaborator's role. The escalation restraint is
// re-checked against the locked row, not the caller's earlier snapshot, so a
// concurrent promotion of the target to owner cannot slip past an editor.
func (s *ProjectService) UpdateRole(ctx context.Context, projectID, targetUserID uuid.UUID, actorRole, newRole string) (*models.Collaborator, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, owners, err := lockMembership(ctx, tx, projectID, targetUserID)
	if err != nil {
		return nil, err
	}

	if !policy.CanAssignRole(actorRole, current.Role, newRole) {
		return nil, ErrRoleNotAllowed
	}
	if current.Role == newRole {
		return nil, ErrRoleUnchanged
	}
	if current.Role == models.RoleOwner && current.Status == models.StatusActive && owners <= 1 {
		return nil, ErrLastOwner
	}

	var collab models.Collaborator
	err = scanCollaborator(tx.QueryRow(ctx, `
		UPDATE project_collaborators SET role = $1, updated_at = NOW()
		WHERE project_id = $2 AND user_id = $3
		RETURNING `+collaboratorColumns+`
	`, newRole, projectID, targetUserID), &collab)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &collab, nil
}

// Remove revokes a membership (removal and self-service leave share this
// path). The shared lock keeps the last active owner from ever being revoked.
func (s *ProjectService) Remove(ctx context.Context, projectID, targetUserID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, owners, err := lockMembership(ctx, tx, projectID, targetUserID)
	if err != nil {
		return err
	}

	if current.Role == models.RoleOwner && current.Status == models.StatusActive && owners <= 1 {
		return ErrLastOwner
	}

	_, err = tx.Exec(ctx, `
		UPDATE project_collaborators SET status = $1, updated_at = NOW()
		WHERE project_id = $2 AND user_id = $3
	`, models.StatusRevoked, projectID, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to revoke collaborator: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockMembership locks the target's membership row together with every active
// owner row of the project in a single statement, ordered by user_id. Every
// guard acquires the same locks in the same sequence, so two guards racing on
// the same project serialize instead of deadlocking. Returns the target row
// and the active-owner count as seen under the locks.
func lockMembership(ctx context.Context, tx pgx.Tx, projectID, targetUserID uuid.UUID) (*models.Collaborator, int, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+collaboratorColumns+`
		FROM project_collaborators
		WHERE project_id = $1 AND (user_id = $2 OR (role = $3 AND status = $4))
		ORDER BY user_id
		FOR UPDATE
	`, projectID, targetUserID, models.RoleOwner, models.StatusActive)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock membership rows: %w", err)
	}
	defer rows.Close()

	var target *models.Collaborator
	owners := 0
	for rows.Next() {
		var collab models.Collaborator
		if err := scanCollaborator(rows, &collab); err != nil {
			return nil, 0, err
		}
		if collab.Role == models.RoleOwner && collab.Status == models.StatusActive {
			owners++
		}
		if collab.UserID == targetUserID {
			c := collab
			target = &c
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if target == nil {
		return nil, 0, ErrCollaboratorNotFound
	}
	return target, owners, nil
}

// CountActiveOwners reports the live owner count; used by maintenance tooling
// and tests, not by guards (guards use the locking variant).
func (s *ProjectService) CountActiveOwners(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM project_collaborators
		WHERE project_id = $1 AND role = $2 AND status = $3
	`, projectID, models.RoleOwner, models.StatusActive).Scan(&count)
	return count, err
}
