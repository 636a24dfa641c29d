package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// requireMember runs the guard prefix every project-scoped route shares:
// authenticated caller, valid project id in the path, and an active
// membership. A project that exists but excludes the caller reads as
// Forbidden; a missing project as NotFound.
func requireMember(c *drift.Context, projects ProjectServiceInterface) (userID, projectID uuid.UUID, role string, ok bool) {
	userID = middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, "", false
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return uuid.Nil, uuid.Nil, "", false
	}

	role, err = projects.GetActiveRole(context.Background(), projectID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			c.NotFound("project not found")
		case errors.Is(err, services.ErrNotCollaborator):
			c.Forbidden("not a collaborator on this project")
		default:
			c.InternalServerError("failed to check project membership")
		}
		return uuid.Nil, uuid.Nil, "", false
	}

	return userID, projectID, role, true
}

func conflict(c *drift.Context, message string) {
	_ = c.JSON(409, map[string]string{
		"code":    "CONFLICT",
		"message": message,
	})
}

func toUserResponse(user *models.User) dto.UserResponse {
	interests := user.ResearchInterests
	if interests == nil {
		interests = []string{}
	}
	return dto.UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		AvatarURL:         user.AvatarURL,
		Institution:       user.Institution,
		Bio:               user.Bio,
		ResearchInterests: interests,
		CreatedAt:         user.CreatedAt,
	}
}

func toProjectResponse(project *models.Project, role string) dto.ProjectResponse {
	tags := project.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		Visibility:  project.Visibility,
		Tags:        tags,
		Role:        role,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func toCollaboratorResponse(collab *models.Collaborator) dto.CollaboratorResponse {
	resp := dto.CollaboratorResponse{
		UserID:    collab.UserID,
		Role:      collab.Role,
		Status:    collab.Status,
		InvitedBy: collab.InvitedBy,
		CreatedAt: collab.CreatedAt,
	}
	if collab.User != nil {
		user := toUserResponse(collab.User)
		resp.User = &user
	}
	return resp
}

func toTaskResponse(task *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssigneeID:  task.AssigneeID,
		Position:    task.Position,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func toNoteResponse(note *models.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		ProjectID: note.ProjectID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedBy: note.CreatedBy,
		UpdatedBy: note.UpdatedBy,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func toFileResponse(file *models.ProjectFile) dto.FileResponse {
	return dto.FileResponse{
		ID:          file.ID,
		ProjectID:   file.ProjectID,
		Name:        file.Name,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
		StorageKey:  file.StorageKey,
		UploadedBy:  file.UploadedBy,
		CreatedAt:   file.CreatedAt,
	}
}

func toResearchItemResponse(item *models.ResearchItem) dto.ResearchItemResponse {
	return dto.ResearchItemResponse{
		ID:        item.ID,
		ProjectID: item.ProjectID,
		Title:     item.Title,
		SourceURL: item.SourceURL,
		Abstract:  item.Abstract,
		Position:  item.Position,
		AddedBy:   item.AddedBy,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func toPostResponse(post *models.ResearchPost) dto.PostResponse {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := dto.PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Body:      post.Body,
		Tags:      tags,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if post.Author != nil {
		resp.Author = &dto.PostAuthor{
			ID:          post.Author.ID,
			Name:        post.Author.Name,
			AvatarURL:   post.Author.AvatarURL,
			Institution: post.Author.Institution,
		}
	}
	return resp
}

func toMessageResponse(msg *models.ProjectMessage) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:        msg.ID,
		ProjectID: msg.ProjectID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Sender != nil {
		resp.Sender = &dto.MessageSender{
			ID:        msg.Sender.ID,
			Name:      msg.Sender.Name,
			AvatarURL: msg.Sender.AvatarURL,
		}
	}
	return resp
}
