package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProjectService(t *testing.T) (*ProjectService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewProjectService(db), mock
}

func projectRow(id, ownerID uuid.UUID, title string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "title", "description", "owner_id", "visibility", "tags", "created_at", "updated_at"}).
		AddRow(id, title, "", ownerID, models.VisibilityPrivate, []string{}, now, now)
}

func collaboratorRow(projectID, userID uuid.UUID, role, status string, invitedBy *uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "project_id", "user_id", "role", "status", "invited_by", "created_at", "updated_at"}).
		AddRow(uuid.New(), projectID, userID, role, status, invitedBy, now, now)
}

func TestProjectService_Create(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("Protein Folding", "desc", ownerID, models.VisibilityPrivate, []string{"biology"}).
		WillReturnRows(projectRow(projectID, ownerID, "Protein Folding"))
	mock.ExpectExec(`INSERT INTO project_collaborators`).
		WithArgs(projectID, ownerID, models.RoleOwner, models.StatusActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	project, err := svc.Create(ctx, "Protein Folding", "desc", models.VisibilityPrivate, []string{"biology"}, ownerID)

	require.NoError(t, err)
	assert.Equal(t, projectID, project.ID)
	assert.Equal(t, ownerID, project.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()

	mock.ExpectQuery(`FROM projects WHERE id`).
		WithArgs(projectID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(ctx, projectID)

	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_GetActiveRole(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM project_collaborators`).
		WithArgs(projectID, userID, models.StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleEditor))

	role, err := svc.GetActiveRole(ctx, projectID, userID)

	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_GetActiveRole_NotCollaborator(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM project_collaborators`).
		WithArgs(projectID, userID, models.StatusActive).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.GetActiveRole(ctx, projectID, userID)

	assert.ErrorIs(t, err, ErrNotCollaborator)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_GetActiveRole_ProjectGone(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM project_collaborators`).
		WithArgs(projectID, userID, models.StatusActive).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.GetActiveRole(ctx, projectID, userID)

	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Invite(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	inviterID := uuid.New()
	inviteeID := uuid.New()

	mock.ExpectQuery(`INSERT INTO project_collaborators`).
		WithArgs(projectID, inviteeID, models.RoleViewer, models.StatusPending, inviterID,
			models.StatusDeclined, models.StatusRevoked).
		WillReturnRows(collaboratorRow(projectID, inviteeID, models.RoleViewer, models.StatusPending, &inviterID))

	collab, err := svc.Invite(ctx, projectID, inviterID, inviteeID, models.RoleViewer)

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, collab.Status)
	assert.Equal(t, models.RoleViewer, collab.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Invite_AlreadyActive(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	inviterID := uuid.New()
	inviteeID := uuid.New()

	mock.ExpectQuery(`INSERT INTO project_collaborators`).
		WithArgs(projectID, inviteeID, models.RoleEditor, models.StatusPending, inviterID,
			models.StatusDeclined, models.StatusRevoked).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM project_collaborators`).
		WithArgs(projectID, inviteeID).
		WillReturnRows(collaboratorRow(projectID, inviteeID, models.RoleEditor, models.StatusActive, nil))

	_, err := svc.Invite(ctx, projectID, inviterID, inviteeID, models.RoleEditor)

	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Invite_AlreadyPending(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	inviterID := uuid.New()
	inviteeID := uuid.New()

	mock.ExpectQuery(`INSERT INTO project_collaborators`).
		WithArgs(projectID, inviteeID, models.RoleViewer, models.StatusPending, inviterID,
			models.StatusDeclined, models.StatusRevoked).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM project_collaborators`).
		WithArgs(projectID, inviteeID).
		WillReturnRows(collaboratorRow(projectID, inviteeID, models.RoleViewer, models.StatusPending, &inviterID))

	_, err := svc.Invite(ctx, projectID, inviterID, inviteeID, models.RoleViewer)

	assert.ErrorIs(t, err, ErrInvitePending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Respond_Accept(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`UPDATE project_collaborators SET status`).
		WithArgs(models.StatusActive, projectID, userID, models.StatusPending).
		WillReturnRows(collaboratorRow(projectID, userID, models.RoleViewer, models.StatusActive, nil))

	collab, err := svc.Respond(ctx, projectID, userID, models.StatusActive)

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, collab.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Respond_NoPendingInvite(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`UPDATE project_collaborators SET status`).
		WithArgs(models.StatusDeclined, projectID, userID, models.StatusPending).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Respond(ctx, projectID, userID, models.StatusDeclined)

	assert.ErrorIs(t, err, ErrInviteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// expectMembershipLock expects the single combined lock query that guards
// UpdateRole and Remove, returning the given membership rows.
func expectMembershipLock(mock pgxmock.PgxPoolIface, projectID, targetID uuid.UUID, rows *pgxmock.Rows) {
	mock.ExpectQuery(`ORDER BY user_id`).
		WithArgs(projectID, targetID, models.RoleOwner, models.StatusActive).
		WillReturnRows(rows)
}

func TestProjectService_UpdateRole_DemoteLastOwner(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID,
		collaboratorRow(projectID, targetID, models.RoleOwner, models.StatusActive, nil))
	mock.ExpectRollback()

	_, err := svc.UpdateRole(ctx, projectID, targetID, models.RoleOwner, models.RoleEditor)

	assert.ErrorIs(t, err, ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_UpdateRole_DemoteWithCoOwner(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()
	otherOwnerID := uuid.New()
	now := time.Now()

	locked := collaboratorRow(projectID, targetID, models.RoleOwner, models.StatusActive, nil).
		AddRow(uuid.New(), projectID, otherOwnerID, models.RoleOwner, models.StatusActive, (*uuid.UUID)(nil), now, now)

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID, locked)
	mock.ExpectQuery(`UPDATE project_collaborators SET role`).
		WithArgs(models.RoleEditor, projectID, targetID).
		WillReturnRows(collaboratorRow(projectID, targetID, models.RoleEditor, models.StatusActive, nil))
	mock.ExpectCommit()

	collab, err := svc.UpdateRole(ctx, projectID, targetID, models.RoleOwner, models.RoleEditor)

	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, collab.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_UpdateRole_Unchanged(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID,
		collaboratorRow(projectID, targetID, models.RoleEditor, models.StatusActive, nil))
	mock.ExpectRollback()

	_, err := svc.UpdateRole(ctx, projectID, targetID, models.RoleOwner, models.RoleEditor)

	assert.ErrorIs(t, err, ErrRoleUnchanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An editor's role change races with the target's promotion to owner: the
// pre-transaction snapshot said editor, but the locked row says owner. The
// restraint is decided on the locked row, so the change is refused.
func TestProjectService_UpdateRole_TargetPromotedConcurrently(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()
	otherOwnerID := uuid.New()
	now := time.Now()

	locked := collaboratorRow(projectID, targetID, models.RoleOwner, models.StatusActive, nil).
		AddRow(uuid.New(), projectID, otherOwnerID, models.RoleOwner, models.StatusActive, (*uuid.UUID)(nil), now, now)

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID, locked)
	mock.ExpectRollback()

	_, err := svc.UpdateRole(ctx, projectID, targetID, models.RoleEditor, models.RoleViewer)

	assert.ErrorIs(t, err, ErrRoleNotAllowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Remove_LastOwner(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID,
		collaboratorRow(projectID, targetID, models.RoleOwner, models.StatusActive, nil))
	mock.ExpectRollback()

	err := svc.Remove(ctx, projectID, targetID)

	assert.ErrorIs(t, err, ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Remove_OwnerWithCoOwner(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()
	otherOwnerID := uuid.New()
	now := time.Now()

	locked := collaboratorRow(projectID, targetID, models.RoleOwner, models.StatusActive, nil).
		AddRow(uuid.New(), projectID, otherOwnerID, models.RoleOwner, models.StatusActive, (*uuid.UUID)(nil), now, now)

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID, locked)
	mock.ExpectExec(`UPDATE project_collaborators SET status`).
		WithArgs(models.StatusRevoked, projectID, targetID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := svc.Remove(ctx, projectID, targetID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Remove_Viewer(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()
	ownerID := uuid.New()
	now := time.Now()

	locked := collaboratorRow(projectID, ownerID, models.RoleOwner, models.StatusActive, nil).
		AddRow(uuid.New(), projectID, targetID, models.RoleViewer, models.StatusActive, (*uuid.UUID)(nil), now, now)

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID, locked)
	mock.ExpectExec(`UPDATE project_collaborators SET status`).
		WithArgs(models.StatusRevoked, projectID, targetID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := svc.Remove(ctx, projectID, targetID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Remove_NotCollaborator(t *testing.T) {
	svc, mock := setupProjectService(t)
	ctx := context.Background()
	projectID := uuid.New()
	targetID := uuid.New()

	mock.ExpectBegin()
	expectMembershipLock(mock, projectID, targetID,
		pgxmock.NewRows([]string{"id", "project_id", "user_id", "role", "status", "invited_by", "created_at", "updated_at"}))
	mock.ExpectRollback()

	err := svc.Remove(ctx, projectID, targetID)

	assert.ErrorIs(t, err, ErrCollaboratorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
