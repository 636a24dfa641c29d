package handlers

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func (h *UserHandler) UpdateProfile(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name != nil && *req.Name == "" {
		c.BadRequest("name cannot be empty")
		return
	}

	user, err := h.userService.UpdateProfile(context.Background(), userID,
		req.Name, req.Institution, req.Bio, req.ResearchInterests)
	if err != nil {
		c.InternalServerError("failed to update profile")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

// Matches surfaces researchers with overlapping interests, strongest overlap
// first.
func (h *UserHandler) Matches(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.BadRequest("limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	users, shared, err := h.userService.FindMatches(context.Background(), userID, limit)
	if err != nil {
		c.InternalServerError("failed to find matches")
		return
	}

	response := make([]dto.MatchResponse, len(users))
	for i := range users {
		response[i] = dto.MatchResponse{
			User:            toUserResponse(&users[i]),
			SharedInterests: shared[i],
		}
	}

	_ = c.JSON(200, response)
}
