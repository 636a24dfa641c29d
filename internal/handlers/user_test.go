package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
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

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, email)
	require.NoError(t, err)
	return pair.AccessToken
}

func testUser(id uuid.UUID, email string) *models.User {
	return &models.User{
		ID:                id,
		Email:             email,
		Name:              "Test User",
		Provider:          "orcid",
		ProviderID:        "0000-0001-0000-0000",
		GlobalRole:        models.GlobalRoleUser,
		ResearchInterests: []string{"genomics"},
	}
}

func TestUserHandler_Me_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "ada@example.edu"
	mockUserService.On("GetByID", mock.Anything, userID).Return(testUser(userID, email), nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/users/me", handler.Me)

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, userID, response.ID)
	assert.Equal(t, email, response.Email)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Me_Unauthenticated(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/users/me", handler.Me)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_UpdateProfile_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "ada@example.edu"
	institution := "Cambridge"
	interests := []string{"genomics", "ml"}

	updated := testUser(userID, email)
	updated.Institution = &institution
	updated.ResearchInterests = interests

	mockUserService.On("UpdateProfile", mock.Anything, userID,
		(*string)(nil), &institution, (*string)(nil), interests).Return(updated, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/users/me", handler.UpdateProfile)

	body, _ := json.Marshal(dto.UpdateProfileRequest{
		Institution:       &institution,
		ResearchInterests: interests,
	})

	token := generateTestToken(t, jwtSvc, userID, email)
	req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Institution)
	assert.Equal(t, "Cambridge", *response.Institution)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_UpdateProfile_EmptyName(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	empty := ""

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Patch("/users/me", handler.UpdateProfile)

	body, _ := json.Marshal(dto.UpdateProfileRequest{Name: &empty})

	token := generateTestToken(t, jwtSvc, userID, "ada@example.edu")
	req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockUserService.AssertNotCalled(t, "UpdateProfile")
}

func TestUserHandler_Matches_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	other := testUser(uuid.New(), "grace@example.edu")

	mockUserService.On("FindMatches", mock.Anything, userID, 20).
		Return([]models.User{*other}, []int{2}, nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/users/matches", handler.Matches)

	token := generateTestToken(t, jwtSvc, userID, "ada@example.edu")
	req := httptest.NewRequest(http.MethodGet, "/users/matches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, 2, response[0].SharedInterests)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Matches_InvalidLimit(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/users/matches", handler.Matches)

	token := generateTestToken(t, jwtSvc, uuid.New(), "ada@example.edu")
	req := httptest.NewRequest(http.MethodGet, "/users/matches?limit=0", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockUserService.AssertNotCalled(t, "FindMatches")
}
