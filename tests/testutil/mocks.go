package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/oauth"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, institution, bio *string, interests []string) (*models.User, error) {
	args := m.Called(ctx, id, name, institution, bio, interests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, []int, error) {
	args := m.Called(ctx, userID, limit)
	var users []models.User
	if args.Get(0) != nil {
		users = args.Get(0).([]models.User)
	}
	var shared []int
	if args.Get(1) != nil {
		shared = args.Get(1).([]int)
	}
	return users, shared, args.Error(2)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, title, description, visibility string, tags []string, ownerID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, title, description, visibility, tags, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, []string, error) {
	args := m.Called(ctx, userID)
	var projects []models.Project
	if args.Get(0) != nil {
		projects = args.Get(0).([]models.Project)
	}
	var roles []string
	if args.Get(1) != nil {
		roles = args.Get(1).([]string)
	}
	return projects, roles, args.Error(2)
}

func (m *MockProjectService) Update(ctx context.Context, projectID uuid.UUID, title, description, visibility *string, tags []string) (*models.Project, error) {
	args := m.Called(ctx, projectID, title, description, visibility, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *MockProjectService) GetActiveRole(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, projectID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProjectService) GetCollaborator(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaborator), args.Error(1)
}

func (m *MockProjectService) GetCollaborators(ctx context.Context, projectID uuid.UUID) ([]models.Collaborator, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Collaborator), args.Error(1)
}

func (m *MockProjectService) Invite(ctx context.Context, projectID, inviterID, inviteeID uuid.UUID, role string) (*models.Collaborator, error) {
	args := m.Called(ctx, projectID, inviterID, inviteeID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaborator), args.Error(1)
}

func (m *MockProjectService) Respond(ctx context.Context, projectID, userID uuid.UUID, status string) (*models.Collaborator, error) {
	args := m.Called(ctx, projectID, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaborator), args.Error(1)
}

func (m *MockProjectService) GetPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.Collaborator, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Collaborator), args.Error(1)
}

func (m *MockProjectService) UpdateRole(ctx context.Context, projectID, targetUserID uuid.UUID, actorRole, newRole string) (*models.Collaborator, error) {
	args := m.Called(ctx, projectID, targetUserID, actorRole, newRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaborator), args.Error(1)
}

func (m *MockProjectService) Remove(ctx context.Context, projectID, targetUserID uuid.UUID) error {
	args := m.Called(ctx, projectID, targetUserID)
	return args.Error(0)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, projectID uuid.UUID, title, description string, assigneeID *uuid.UUID, createdBy uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, projectID, title, description, assigneeID, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, projectID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, projectID, taskID uuid.UUID, title, description, status *string, assigneeID *uuid.UUID, clearAssignee bool, position *int) (*models.Task, error) {
	args := m.Called(ctx, projectID, taskID, title, description, status, assigneeID, clearAssignee, position)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	args := m.Called(ctx, projectID, taskID)
	return args.Error(0)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, message string, projectID *uuid.UUID) error {
	args := m.Called(ctx, userID, kind, message, projectID)
	return args.Error(0)
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockActivityService mocks the ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Record(ctx context.Context, projectID, actorID uuid.UUID, details models.ActivityDetails) error {
	args := m.Called(ctx, projectID, actorID, details)
	return args.Error(0)
}

func (m *MockActivityService) List(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]models.ActivityEntry, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityEntry), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendProjectInvite(to, projectTitle, inviterName, inviteURL string) error {
	args := m.Called(to, projectTitle, inviterName, inviteURL)
	return args.Error(0)
}

// MockPostService mocks the PostService
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) Create(ctx context.Context, authorID uuid.UUID, title, body string, tags []string) (*models.ResearchPost, error) {
	args := m.Called(ctx, authorID, title, body, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResearchPost), args.Error(1)
}

func (m *MockPostService) GetByID(ctx context.Context, postID uuid.UUID) (*models.ResearchPost, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResearchPost), args.Error(1)
}

func (m *MockPostService) List(ctx context.Context, tag string, limit, offset int) ([]models.ResearchPost, error) {
	args := m.Called(ctx, tag, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ResearchPost), args.Error(1)
}

func (m *MockPostService) Update(ctx context.Context, postID, authorID uuid.UUID, title, body *string, tags []string) (*models.ResearchPost, error) {
	args := m.Called(ctx, postID, authorID, title, body, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResearchPost), args.Error(1)
}

func (m *MockPostService) Delete(ctx context.Context, postID, authorID uuid.UUID) error {
	args := m.Called(ctx, postID, authorID)
	return args.Error(0)
}
