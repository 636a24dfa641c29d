package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type PostHandler struct {
	postService PostServiceInterface
}

func NewPostHandler(postService PostServiceInterface) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	post, err := h.postService.Create(context.Background(), userID, req.Title, req.Body, req.Tags)
	if err != nil {
		c.InternalServerError("failed to create post")
		return
	}

	_ = c.JSON(201, toPostResponse(post))
}

func (h *PostHandler) List(c *drift.Context) {
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
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.BadRequest("offset must be non-negative")
			return
		}
		offset = parsed
	}

	posts, err := h.postService.List(context.Background(), c.QueryParam("tag"), limit, offset)
	if err != nil {
		c.InternalServerError("failed to get posts")
		return
	}

	response := make([]dto.PostResponse, len(posts))
	for i := range posts {
		response[i] = toPostResponse(&posts[i])
	}

	_ = c.JSON(200, response)
}

func (h *PostHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	post, err := h.postService.GetByID(context.Background(), postID)
	if err != nil {
		c.NotFound("post not found")
		return
	}

	_ = c.JSON(200, toPostResponse(post))
}

func (h *PostHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	var req dto.UpdatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		c.BadRequest("title cannot be empty")
		return
	}

	post, err := h.postService.Update(context.Background(), postID, userID, req.Title, req.Body, req.Tags)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			c.NotFound("post not found")
			return
		}
		c.InternalServerError("failed to update post")
		return
	}

	_ = c.JSON(200, toPostResponse(post))
}

func (h *PostHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid post id")
		return
	}

	if err := h.postService.Delete(context.Background(), postID, userID); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			c.NotFound("post not found")
			return
		}
		c.InternalServerError("failed to delete post")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "post deleted"})
}
