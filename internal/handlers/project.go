package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/config"
	"github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/policy"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProjectHandler struct {
	cfg                 *config.Config
	projectService      ProjectServiceInterface
	userService         UserServiceInterface
	notificationService NotificationServiceInterface
	activityService     ActivityServiceInterface
	emailService        EmailServiceInterface
}

func NewProjectHandler(
	cfg *config.Config,
	projectService ProjectServiceInterface,
	userService UserServiceInterface,
	notificationService NotificationServiceInterface,
	activityService ActivityServiceInterface,
	emailService EmailServiceInterface,
) *ProjectHandler {
	return &ProjectHandler{
		cfg:                 cfg,
		projectService:      projectService,
		userService:         userService,
		notificationService: notificationService,
		activityService:     activityService,
		emailService:        emailService,
	}
}

func (h *ProjectHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if visibility != models.VisibilityPrivate && visibility != models.VisibilityPublic {
		c.BadRequest("visibility must be private or public")
		return
	}

	project, err := h.projectService.Create(context.Background(), req.Title, req.Description, visibility, req.Tags, userID)
	if err != nil {
		c.InternalServerError("failed to create project")
		return
	}

	_ = c.JSON(201, toProjectResponse(project, models.RoleOwner))
}

func (h *ProjectHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projects, roles, err := h.projectService.GetUserProjects(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get projects")
		return
	}

	response := make([]dto.ProjectResponse, len(projects))
	for i := range projects {
		response[i] = toProjectResponse(&projects[i], roles[i])
	}

	_ = c.JSON(200, response)
}

// Get serves members at any role. Public projects read the same to everyone
// else; private ones read as missing to avoid leaking their existence.
func (h *ProjectHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	ctx := context.Background()
	role, err := h.projectService.GetActiveRole(ctx, projectID, userID)
	if err != nil && !errors.Is(err, services.ErrNotCollaborator) {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.NotFound("project not found")
		} else {
			c.InternalServerError("failed to check project membership")
		}
		return
	}

	project, perr := h.projectService.GetByID(ctx, projectID)
	if perr != nil {
		c.NotFound("project not found")
		return
	}

	if errors.Is(err, services.ErrNotCollaborator) && project.Visibility != models.VisibilityPublic {
		c.NotFound("project not found")
		return
	}

	_ = c.JSON(200, toProjectResponse(project, role))
}

func (h *ProjectHandler) Update(c *drift.Context) {
	_, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionManageProject, false) {
		c.Forbidden("only an owner can update the project")
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title != nil && *req.Title == "" {
		c.BadRequest("title cannot be empty")
		return
	}
	if req.Visibility != nil &&
		*req.Visibility != models.VisibilityPrivate && *req.Visibility != models.VisibilityPublic {
		c.BadRequest("visibility must be private or public")
		return
	}

	project, err := h.projectService.Update(context.Background(), projectID, req.Title, req.Description, req.Visibility, req.Tags)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.NotFound("project not found")
			return
		}
		c.InternalServerError("failed to update project")
		return
	}

	_ = c.JSON(200, toProjectResponse(project, role))
}

func (h *ProjectHandler) Delete(c *drift.Context) {
	_, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionManageProject, false) {
		c.Forbidden("only an owner can delete the project")
		return
	}

	if err := h.projectService.Delete(context.Background(), projectID); err != nil {
		c.InternalServerError("failed to delete project")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "project deleted"})
}

func (h *ProjectHandler) ListCollaborators(c *drift.Context) {
	_, projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	collabs, err := h.projectService.GetCollaborators(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to get collaborators")
		return
	}

	response := make([]dto.CollaboratorResponse, len(collabs))
	for i := range collabs {
		response[i] = toCollaboratorResponse(&collabs[i])
	}

	_ = c.JSON(200, response)
}

func (h *ProjectHandler) Invite(c *drift.Context) {
	userID, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionInvite, false) {
		c.Forbidden("viewers cannot invite collaborators")
		return
	}

	var req dto.InviteCollaboratorRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}
	if !models.ValidRole(req.Role) {
		c.BadRequest("role must be owner, editor or viewer")
		return
	}
	if !policy.CanAssignRole(role, "", req.Role) {
		c.Forbidden("only an owner can grant the owner role")
		return
	}

	ctx := context.Background()
	invitee, err := h.userService.GetByEmail(ctx, req.Email)
	if err != nil {
		c.NotFound("no user with that email")
		return
	}
	if invitee.ID == userID {
		c.BadRequest("cannot invite yourself")
		return
	}

	collab, err := h.projectService.Invite(ctx, projectID, userID, invitee.ID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyMember):
			conflict(c, "user is already an active collaborator")
		case errors.Is(err, services.ErrInvitePending):
			conflict(c, "user already has a pending invitation")
		default:
			c.InternalServerError("failed to create invitation")
		}
		return
	}

	h.notifyInvite(ctx, projectID, userID, invitee, req.Role)

	_ = c.JSON(201, toCollaboratorResponse(collab))
}

func (h *ProjectHandler) notifyInvite(ctx context.Context, projectID, inviterID uuid.UUID, invitee *models.User, role string) {
	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		return
	}

	inviterName := "A collaborator"
	if inviter, err := h.userService.GetByID(ctx, inviterID); err == nil {
		inviterName = inviter.Name
	}

	_ = h.notificationService.Notify(ctx, invitee.ID, models.NotificationInviteReceived,
		fmt.Sprintf("%s invited you to collaborate on %q", inviterName, project.Title), &projectID)
	_ = h.activityService.Record(ctx, projectID, inviterID,
		&models.CollaboratorInvitedDetails{UserID: invitee.ID, Role: role})

	if h.emailService.IsConfigured() {
		inviteURL := fmt.Sprintf("%s/projects/%s/invitations", h.cfg.BaseURL, projectID)
		_ = h.emailService.SendProjectInvite(invitee.Email, project.Title, inviterName, inviteURL)
	}
}

// RespondInvitation lets the invited user accept or decline their own pending
// invitation. Nobody else can resolve it for them.
func (h *ProjectHandler) RespondInvitation(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	var req dto.RespondInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	status := models.StatusDeclined
	kind := models.NotificationInviteDeclined
	if req.Accept {
		status = models.StatusActive
		kind = models.NotificationInviteAccepted
	}

	ctx := context.Background()
	collab, err := h.projectService.Respond(ctx, projectID, userID, status)
	if err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			c.NotFound("no pending invitation for this project")
			return
		}
		c.InternalServerError("failed to respond to invitation")
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.CollaboratorRespondedDetails{UserID: userID, Status: status})
	if collab.InvitedBy != nil {
		if user, err := h.userService.GetByID(ctx, userID); err == nil {
			verb := "declined"
			if req.Accept {
				verb = "accepted"
			}
			_ = h.notificationService.Notify(ctx, *collab.InvitedBy, kind,
				fmt.Sprintf("%s %s your invitation", user.Name, verb), &projectID)
		}
	}

	_ = c.JSON(200, toCollaboratorResponse(collab))
}

func (h *ProjectHandler) ListMyInvitations(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invites, err := h.projectService.GetPendingInvites(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get invitations")
		return
	}

	response := make([]dto.InvitationResponse, len(invites))
	for i, invite := range invites {
		response[i] = dto.InvitationResponse{
			ProjectID: invite.ProjectID,
			Role:      invite.Role,
			InvitedBy: invite.InvitedBy,
			CreatedAt: invite.CreatedAt,
		}
		if invite.Project != nil {
			response[i].ProjectTitle = invite.Project.Title
		}
	}

	_ = c.JSON(200, response)
}

func (h *ProjectHandler) UpdateCollaboratorRole(c *drift.Context) {
	userID, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.UpdateCollaboratorRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if !models.ValidRole(req.Role) {
		c.BadRequest("role must be owner, editor or viewer")
		return
	}

	ctx := context.Background()
	target, err := h.projectService.GetCollaborator(ctx, projectID, targetID)
	if err != nil {
		c.NotFound("collaborator not found")
		return
	}

	if !policy.CanAssignRole(role, target.Role, req.Role) {
		c.Forbidden("insufficient role to make this change")
		return
	}

	collab, err := h.projectService.UpdateRole(ctx, projectID, targetID, role, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoleNotAllowed):
			c.Forbidden("insufficient role to make this change")
		case errors.Is(err, services.ErrRoleUnchanged):
			conflict(c, "collaborator already has this role")
		case errors.Is(err, services.ErrLastOwner):
			conflict(c, "project must keep at least one active owner")
		case errors.Is(err, services.ErrCollaboratorNotFound):
			c.NotFound("collaborator not found")
		default:
			c.InternalServerError("failed to update role")
		}
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.RoleChangedDetails{UserID: targetID, OldRole: target.Role, NewRole: req.Role})
	_ = h.notificationService.Notify(ctx, targetID, models.NotificationRoleChanged,
		fmt.Sprintf("your role was changed to %s", req.Role), &projectID)

	_ = c.JSON(200, toCollaboratorResponse(collab))
}

// RemoveCollaborator covers both removal by an owner and leaving voluntarily;
// the same last-owner guard applies either way.
func (h *ProjectHandler) RemoveCollaborator(c *drift.Context) {
	userID, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	h.removeCollaborator(c, projectID, userID, targetID, role)
}

func (h *ProjectHandler) Leave(c *drift.Context) {
	userID, projectID, role, ok := h.requireMember(c)
	if !ok {
		return
	}

	h.removeCollaborator(c, projectID, userID, userID, role)
}

func (h *ProjectHandler) removeCollaborator(c *drift.Context, projectID, actorID, targetID uuid.UUID, actorRole string) {
	isSelf := actorID == targetID
	if !policy.Decide(actorRole, policy.ActionRemoveCollaborator, isSelf) {
		c.Forbidden("only an owner can remove other collaborators")
		return
	}

	ctx := context.Background()
	if err := h.projectService.Remove(ctx, projectID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrLastOwner):
			conflict(c, "project must keep at least one active owner")
		case errors.Is(err, services.ErrCollaboratorNotFound):
			c.NotFound("collaborator not found")
		default:
			c.InternalServerError("failed to remove collaborator")
		}
		return
	}

	_ = h.activityService.Record(ctx, projectID, actorID,
		&models.CollaboratorRemovedDetails{UserID: targetID, Left: isSelf})
	if !isSelf {
		_ = h.notificationService.Notify(ctx, targetID, models.NotificationRemovedFromProj,
			"you were removed from a project", &projectID)
	}

	_ = c.JSON(200, map[string]string{"message": "collaborator removed"})
}

func (h *ProjectHandler) Activity(c *drift.Context) {
	_, projectID, _, ok := h.requireMember(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.BadRequest("limit must be between 1 and 200")
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.BadRequest("offset must be non-negative")
			return
		}
		offset = parsed
	}

	entries, err := h.activityService.List(context.Background(), projectID, limit, offset)
	if err != nil {
		c.InternalServerError("failed to get activity")
		return
	}

	response := make([]dto.ActivityResponse, len(entries))
	for i, entry := range entries {
		response[i] = dto.ActivityResponse{
			ID:        entry.ID,
			ProjectID: entry.ProjectID,
			ActorID:   entry.ActorID,
			Kind:      entry.Kind,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *ProjectHandler) requireMember(c *drift.Context) (uuid.UUID, uuid.UUID, string, bool) {
	return requireMember(c, h.projectService)
}
