package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/internal/models"
	"github.com/labmesh/labmesh-api/internal/policy"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ResearchItemHandler struct {
	projectService  ProjectServiceInterface
	itemService     ResearchItemServiceInterface
	activityService ActivityServiceInterface
}

func NewResearchItemHandler(
	projectService ProjectServiceInterface,
	itemService ResearchItemServiceInterface,
	activityService ActivityServiceInterface,
) *ResearchItemHandler {
	return &ResearchItemHandler{
		projectService:  projectService,
		itemService:     itemService,
		activityService: activityService,
	}
}

func (h *ResearchItemHandler) Add(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionCreateResource, false) {
		c.Forbidden("viewers cannot add research items")
		return
	}

	var req dto.AddResearchItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	ctx := context.Background()
	item, err := h.itemService.Add(ctx, projectID, req.Title, req.SourceURL, req.Abstract, userID)
	if err != nil {
		c.InternalServerError("failed to add research item")
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.ItemAddedDetails{ItemID: item.ID, Title: item.Title})

	_ = c.JSON(201, toResearchItemResponse(item))
}

func (h *ResearchItemHandler) List(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	items, err := h.itemService.List(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to get research items")
		return
	}

	response := make([]dto.ResearchItemResponse, len(items))
	for i := range items {
		response[i] = toResearchItemResponse(&items[i])
	}

	_ = c.JSON(200, response)
}

func (h *ResearchItemHandler) Update(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.BadRequest("invalid item id")
		return
	}

	var req dto.UpdateResearchItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		c.BadRequest("title cannot be empty")
		return
	}

	ctx := context.Background()
	existing, err := h.itemService.GetByID(ctx, projectID, itemID)
	if err != nil {
		c.NotFound("research item not found")
		return
	}

	if !policy.Decide(role, policy.ActionUpdateResource, existing.AddedBy == userID) {
		c.Forbidden("viewers can only edit their own research items")
		return
	}

	item, err := h.itemService.Update(ctx, projectID, itemID, req.Title, req.SourceURL, req.Abstract)
	if err != nil {
		if errors.Is(err, services.ErrResearchItemNotFound) {
			c.NotFound("research item not found")
			return
		}
		c.InternalServerError("failed to update research item")
		return
	}

	_ = c.JSON(200, toResearchItemResponse(item))
}

func (h *ResearchItemHandler) Delete(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.BadRequest("invalid item id")
		return
	}

	ctx := context.Background()
	existing, err := h.itemService.GetByID(ctx, projectID, itemID)
	if err != nil {
		c.NotFound("research item not found")
		return
	}

	if !policy.Decide(role, policy.ActionDeleteResource, existing.AddedBy == userID) {
		c.Forbidden("viewers can only delete their own research items")
		return
	}

	if err := h.itemService.Delete(ctx, projectID, itemID); err != nil {
		if errors.Is(err, services.ErrResearchItemNotFound) {
			c.NotFound("research item not found")
			return
		}
		c.InternalServerError("failed to delete research item")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "research item deleted"})
}
