package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/config"
	"github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/labmesh/labmesh-api/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type projectTestEnv struct {
	projects      *testutil.MockProjectService
	users         *testutil.MockUserService
	notifications *testutil.MockNotificationService
	activity      *testutil.MockActivityService
	email         *testutil.MockEmailService
	handler       *ProjectHandler
	jwtSvc        *services.JWTService
	app           *drift.Engine
}

func setupProjectTest(t *testing.T) *projectTestEnv {
	t.Helper()
	env := &projectTestEnv{
		projects:      new(testutil.MockProjectService),
		users:         new(testutil.MockUserService),
		notifications: new(testutil.MockNotificationService),
		activity:      new(testutil.MockActivityService),
		email:         new(testutil.MockEmailService),
		jwtSvc:        newTestJWTService(),
	}
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	env.handler = NewProjectHandler(cfg, env.projects, env.users, env.notifications, env.activity, env.email)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(env.jwtSvc))
	app.Post("/projects", env.handler.Create)
	app.Get("/projects/:id", env.handler.Get)
	app.Patch("/projects/:id", env.handler.Update)
	app.Delete("/projects/:id", env.handler.Delete)
	app.Post("/projects/:id/collaborators", env.handler.Invite)
	app.Patch("/projects/:id/collaborators/:userId", env.handler.UpdateCollaboratorRole)
	app.Delete("/projects/:id/collaborators/:userId", env.handler.RemoveCollaborator)
	app.Post("/projects/:id/invitation", env.handler.RespondInvitation)
	app.Post("/projects/:id/leave", env.handler.Leave)
	env.app = app
	return env
}

func (env *projectTestEnv) do(t *testing.T, method, path string, body any, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		token := generateTestToken(t, env.jwtSvc, userID, "user@example.edu")
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func TestProjectHandler_Create_Success(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	project := &models.Project{
		ID:         uuid.New(),
		Title:      "Coral Reef Survey",
		OwnerID:    userID,
		Visibility: models.VisibilityPrivate,
		Tags:       []string{"ecology"},
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	env.projects.On("Create", mock.Anything, "Coral Reef Survey", "", models.VisibilityPrivate, []string{"ecology"}, userID).
		Return(project, nil)

	rec := env.do(t, http.MethodPost, "/projects", dto.CreateProjectRequest{
		Title: "Coral Reef Survey",
		Tags:  []string{"ecology"},
	}, userID)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.RoleOwner, response.Role)

	env.projects.AssertExpectations(t)
}

func TestProjectHandler_Create_MissingTitle(t *testing.T) {
	env := setupProjectTest(t)

	rec := env.do(t, http.MethodPost, "/projects", dto.CreateProjectRequest{}, uuid.New())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.projects.AssertNotCalled(t, "Create")
}

func TestProjectHandler_Update_Unauthenticated(t *testing.T) {
	env := setupProjectTest(t)

	rec := env.do(t, http.MethodPatch, "/projects/"+uuid.New().String(),
		dto.UpdateProjectRequest{}, uuid.Nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectHandler_Update_InvalidID(t *testing.T) {
	env := setupProjectTest(t)

	rec := env.do(t, http.MethodPatch, "/projects/not-a-uuid",
		dto.UpdateProjectRequest{}, uuid.New())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_Update_MembershipLookupFailure(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return("", errors.New("connection reset"))

	rec := env.do(t, http.MethodPatch, "/projects/"+projectID.String(),
		dto.UpdateProjectRequest{}, userID)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProjectHandler_Update_NotCollaborator(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return("", services.ErrNotCollaborator)

	rec := env.do(t, http.MethodPatch, "/projects/"+projectID.String(),
		dto.UpdateProjectRequest{}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProjectHandler_Update_ProjectGone(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return("", services.ErrProjectNotFound)

	rec := env.do(t, http.MethodPatch, "/projects/"+projectID.String(),
		dto.UpdateProjectRequest{}, userID)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandler_Update_EditorForbidden(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleEditor, nil)

	rec := env.do(t, http.MethodPatch, "/projects/"+projectID.String(),
		dto.UpdateProjectRequest{}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.projects.AssertNotCalled(t, "Update")
}

func TestProjectHandler_Get_PublicProjectVisibleToNonMember(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	project := &models.Project{
		ID:         projectID,
		Title:      "Open Data",
		OwnerID:    uuid.New(),
		Visibility: models.VisibilityPublic,
		Tags:       []string{},
	}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return("", services.ErrNotCollaborator)
	env.projects.On("GetByID", mock.Anything, projectID).Return(project, nil)

	rec := env.do(t, http.MethodGet, "/projects/"+projectID.String(), nil, userID)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectHandler_Get_PrivateProjectHiddenFromNonMember(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	project := &models.Project{
		ID:         projectID,
		Title:      "Secret",
		OwnerID:    uuid.New(),
		Visibility: models.VisibilityPrivate,
	}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return("", services.ErrNotCollaborator)
	env.projects.On("GetByID", mock.Anything, projectID).Return(project, nil)

	rec := env.do(t, http.MethodGet, "/projects/"+projectID.String(), nil, userID)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandler_Invite_ViewerForbidden(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleViewer, nil)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/collaborators",
		dto.InviteCollaboratorRequest{Email: "x@example.edu", Role: models.RoleViewer}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.projects.AssertNotCalled(t, "Invite")
}

func TestProjectHandler_Invite_EditorCannotGrantOwner(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleEditor, nil)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/collaborators",
		dto.InviteCollaboratorRequest{Email: "x@example.edu", Role: models.RoleOwner}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.projects.AssertNotCalled(t, "Invite")
}

func TestProjectHandler_Invite_AlreadyMemberConflict(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	invitee := testUser(uuid.New(), "grace@example.edu")

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleOwner, nil)
	env.users.On("GetByEmail", mock.Anything, "grace@example.edu").Return(invitee, nil)
	env.projects.On("Invite", mock.Anything, projectID, userID, invitee.ID, models.RoleEditor).
		Return(nil, services.ErrAlreadyMember)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/collaborators",
		dto.InviteCollaboratorRequest{Email: "grace@example.edu", Role: models.RoleEditor}, userID)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestProjectHandler_Invite_Success(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	invitee := testUser(uuid.New(), "grace@example.edu")
	collab := &models.Collaborator{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    invitee.ID,
		Role:      models.RoleEditor,
		Status:    models.StatusPending,
		InvitedBy: &userID,
	}
	project := &models.Project{ID: projectID, Title: "Coral Reef Survey", OwnerID: userID}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleOwner, nil)
	env.users.On("GetByEmail", mock.Anything, "grace@example.edu").Return(invitee, nil)
	env.projects.On("Invite", mock.Anything, projectID, userID, invitee.ID, models.RoleEditor).
		Return(collab, nil)
	env.projects.On("GetByID", mock.Anything, projectID).Return(project, nil)
	env.users.On("GetByID", mock.Anything, userID).Return(testUser(userID, "user@example.edu"), nil)
	env.notifications.On("Notify", mock.Anything, invitee.ID, models.NotificationInviteReceived, mock.Anything, &projectID).
		Return(nil)
	env.activity.On("Record", mock.Anything, projectID, userID, mock.Anything).Return(nil)
	env.email.On("IsConfigured").Return(false)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/collaborators",
		dto.InviteCollaboratorRequest{Email: "grace@example.edu", Role: models.RoleEditor}, userID)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.CollaboratorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.StatusPending, response.Status)

	env.projects.AssertExpectations(t)
	env.notifications.AssertExpectations(t)
}

func TestProjectHandler_RespondInvitation_Accept(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	inviterID := uuid.New()
	collab := &models.Collaborator{
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.RoleViewer,
		Status:    models.StatusActive,
		InvitedBy: &inviterID,
	}

	env.projects.On("Respond", mock.Anything, projectID, userID, models.StatusActive).
		Return(collab, nil)
	env.activity.On("Record", mock.Anything, projectID, userID, mock.Anything).Return(nil)
	env.users.On("GetByID", mock.Anything, userID).Return(testUser(userID, "user@example.edu"), nil)
	env.notifications.On("Notify", mock.Anything, inviterID, models.NotificationInviteAccepted, mock.Anything, &projectID).
		Return(nil)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/invitation",
		dto.RespondInvitationRequest{Accept: true}, userID)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.projects.AssertExpectations(t)
}

func TestProjectHandler_RespondInvitation_NonePending(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("Respond", mock.Anything, projectID, userID, models.StatusDeclined).
		Return(nil, services.ErrInviteNotFound)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/invitation",
		dto.RespondInvitationRequest{Accept: false}, userID)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandler_UpdateRole_EditorCannotDemoteOwner(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	targetID := uuid.New()
	target := &models.Collaborator{
		ProjectID: projectID,
		UserID:    targetID,
		Role:      models.RoleOwner,
		Status:    models.StatusActive,
	}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleEditor, nil)
	env.projects.On("GetCollaborator", mock.Anything, projectID, targetID).Return(target, nil)

	rec := env.do(t, http.MethodPatch,
		"/projects/"+projectID.String()+"/collaborators/"+targetID.String(),
		dto.UpdateCollaboratorRoleRequest{Role: models.RoleEditor}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.projects.AssertNotCalled(t, "UpdateRole")
}

func TestProjectHandler_UpdateRole_LastOwnerConflict(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	target := &models.Collaborator{
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.RoleOwner,
		Status:    models.StatusActive,
	}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleOwner, nil)
	env.projects.On("GetCollaborator", mock.Anything, projectID, userID).Return(target, nil)
	env.projects.On("UpdateRole", mock.Anything, projectID, userID, models.RoleOwner, models.RoleEditor).
		Return(nil, services.ErrLastOwner)

	rec := env.do(t, http.MethodPatch,
		"/projects/"+projectID.String()+"/collaborators/"+userID.String(),
		dto.UpdateCollaboratorRoleRequest{Role: models.RoleEditor}, userID)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// The snapshot read before the transaction can go stale: the target may be
// promoted to owner between the handler's check and the service's locked
// re-check. The service's refusal must still surface as Forbidden.
func TestProjectHandler_UpdateRole_TargetPromotedConcurrently(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	targetID := uuid.New()
	target := &models.Collaborator{
		ProjectID: projectID,
		UserID:    targetID,
		Role:      models.RoleEditor,
		Status:    models.StatusActive,
	}

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleEditor, nil)
	env.projects.On("GetCollaborator", mock.Anything, projectID, targetID).Return(target, nil)
	env.projects.On("UpdateRole", mock.Anything, projectID, targetID, models.RoleEditor, models.RoleViewer).
		Return(nil, services.ErrRoleNotAllowed)

	rec := env.do(t, http.MethodPatch,
		"/projects/"+projectID.String()+"/collaborators/"+targetID.String(),
		dto.UpdateCollaboratorRoleRequest{Role: models.RoleViewer}, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProjectHandler_RemoveCollaborator_ViewerCannotRemoveOthers(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()
	targetID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleViewer, nil)

	rec := env.do(t, http.MethodDelete,
		"/projects/"+projectID.String()+"/collaborators/"+targetID.String(), nil, userID)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.projects.AssertNotCalled(t, "Remove")
}

func TestProjectHandler_Leave_ViewerAllowed(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleViewer, nil)
	env.projects.On("Remove", mock.Anything, projectID, userID).Return(nil)
	env.activity.On("Record", mock.Anything, projectID, userID, mock.Anything).Return(nil)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/leave", nil, userID)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.projects.AssertExpectations(t)
}

func TestProjectHandler_Leave_LastOwnerConflict(t *testing.T) {
	env := setupProjectTest(t)
	userID := uuid.New()
	projectID := uuid.New()

	env.projects.On("GetActiveRole", mock.Anything, projectID, userID).
		Return(models.RoleOwner, nil)
	env.projects.On("Remove", mock.Anything, projectID, userID).
		Return(services.ErrLastOwner)

	rec := env.do(t, http.MethodPost, "/projects/"+projectID.String()+"/leave", nil, userID)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
