package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/oauth"
	"github.com/labmesh/labmesh-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, institution, bio *string, interests []string) (*models.User, error)
	FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, []int, error)
}

// ProjectServiceInterface defines the methods used by handlers from ProjectService
type ProjectServiceInterface interface {
	Create(ctx context.Context, title, description, visibility string, tags []string, ownerID uuid.UUID) (*models.Project, error)
	GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	GetUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, []string, error)
	Update(ctx context.Context, projectID uuid.UUID, title, description, visibility *string, tags []string) (*models.Project, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
	GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
	GetCollaborator(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error)
	GetCollaborators(ctx context.Context, projectID uuid.UUID) ([]models.Collaborator, error)
	Invite(ctx context.Context, projectID, inviterID, inviteeID uuid.UUID, role string) (*models.Collaborator, error)
	Respond(ctx context.Context, projectID, userID uuid.UUID, status string) (*models.Collaborator, error)
	GetPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.Collaborator, error)
	UpdateRole(ctx context.Context, projectID, targetUserID uuid.UUID, actorRole, newRole string) (*models.Collaborator, error)
	Remove(ctx context.Context, projectID, targetUserID uuid.UUID) error
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	Create(ctx context.Context, projectID uuid.UUID, title, description string, assigneeID *uuid.UUID, createdBy uuid.UUID) (*models.Task, error)
	GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	Update(ctx context.Context, projectID, taskID uuid.UUID, title, description, status *string, assigneeID *uuid.UUID, clearAssignee bool, position *int) (*models.Task, error)
	Delete(ctx context.Context, projectID, taskID uuid.UUID) error
}

// NoteServiceInterface defines the methods used by handlers from NoteService
type NoteServiceInterface interface {
	Create(ctx context.Context, projectID uuid.UUID, title, content string, createdBy uuid.UUID) (*models.Note, error)
	GetByID(ctx context.Context, projectID, noteID uuid.UUID) (*models.Note, error)
	List(ctx context.Context, projectID uuid.UUID) ([]models.Note, error)
	Update(ctx context.Context, projectID, noteID uuid.UUID, title, content *string, updatedBy uuid.UUID) (*models.Note, error)
	Delete(ctx context.Context, projectID, noteID uuid.UUID) error
}

// FileServiceInterface defines the methods used by handlers from FileService
type FileServiceInterface interface {
	Register(ctx context.Context, projectID uuid.UUID, name, contentType string, sizeBytes int64, uploadedBy uuid.UUID) (*models.ProjectFile, error)
	GetByID(ctx context.Context, projectID, fileID uuid.UUID) (*models.ProjectFile, error)
	List(ctx context.Context, projectID uuid.UUID) ([]models.ProjectFile, error)
	Delete(ctx context.Context, projectID, fileID uuid.UUID) error
}

// ResearchItemServiceInterface defines the methods used by handlers from ResearchItemService
type ResearchItemServiceInterface interface {
	Add(ctx context.Context, projectID uuid.UUID, title string, sourceURL *string, abstract string, addedBy uuid.UUID) (*models.ResearchItem, error)
	GetByID(ctx context.Context, projectID, itemID uuid.UUID) (*models.ResearchItem, error)
	List(ctx context.Context, projectID uuid.UUID) ([]models.ResearchItem, error)
	Update(ctx context.Context, projectID, itemID uuid.UUID, title, sourceURL, abstract *string) (*models.ResearchItem, error)
	Delete(ctx context.Context, projectID, itemID uuid.UUID) error
}

// PostServiceInterface defines the methods used by handlers from PostService
type PostServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, title, body string, tags []string) (*models.ResearchPost, error)
	GetByID(ctx context.Context, postID uuid.UUID) (*models.ResearchPost, error)
	List(ctx context.Context, tag string, limit, offset int) ([]models.ResearchPost, error)
	Update(ctx context.Context, postID, authorID uuid.UUID, title, body *string, tags []string) (*models.ResearchPost, error)
	Delete(ctx context.Context, postID, authorID uuid.UUID) error
}

// MessageServiceInterface defines the methods used by handlers from MessageService
type MessageServiceInterface interface {
	Send(ctx context.Context, projectID, senderID uuid.UUID, content string) (*models.ProjectMessage, error)
	List(ctx context.Context, projectID uuid.UUID, before *uuid.UUID, limit int) ([]models.ProjectMessage, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string, projectID *uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// ActivityServiceInterface defines the methods used by handlers from ActivityService
type ActivityServiceInterface interface {
	Record(ctx context.Context, projectID, actorID uuid.UUID, details models.ActivityDetails) error
	List(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]models.ActivityEntry, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	IsConfigured() bool
	SendProjectInvite(to, projectTitle, inviterName, inviteURL string) error
}
