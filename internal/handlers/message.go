package handlers

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/labmesh/labmesh-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type MessageHandler struct {
	projectService ProjectServiceInterface
	messageService MessageServiceInterface
}

func NewMessageHandler(
	projectService ProjectServiceInterface,
	messageService MessageServiceInterface,
) *MessageHandler {
	return &MessageHandler{
		projectService: projectService,
		messageService: messageService,
	}
}

// Send posts to the project's discussion thread. Any active member may post,
// viewers included.
func (h *MessageHandler) Send(c *drift.Context) {
	userID, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Content == "" {
		c.BadRequest("content is required")
		return
	}

	msg, err := h.messageService.Send(context.Background(), projectID, userID, req.Content)
	if err != nil {
		c.InternalServerError("failed to send message")
		return
	}

	_ = c.JSON(201, toMessageResponse(msg))
}

func (h *MessageHandler) List(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
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

	var before *uuid.UUID
	if raw := c.QueryParam("before"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.BadRequest("invalid before cursor")
			return
		}
		before = &parsed
	}

	msgs, err := h.messageService.List(context.Background(), projectID, before, limit)
	if err != nil {
		c.InternalServerError("failed to get messages")
		return
	}

	response := make([]dto.MessageResponse, len(msgs))
	for i := range msgs {
		response[i] = toMessageResponse(&msgs[i])
	}

	_ = c.JSON(200, response)
}
