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

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
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
	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.notificationService.List(context.Background(), userID, unreadOnly, limit)
	if err != nil {
		c.InternalServerError("failed to get notifications")
		return
	}

	response := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		response[i] = dto.NotificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   n.Message,
			ProjectID: n.ProjectID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *NotificationHandler) UnreadCount(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	count, err := h.notificationService.CountUnread(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to count notifications")
		return
	}

	_ = c.JSON(200, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid notification id")
		return
	}

	if err := h.notificationService.MarkRead(context.Background(), userID, notificationID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.NotFound("notification not found")
			return
		}
		c.InternalServerError("failed to mark notification read")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.notificationService.MarkAllRead(context.Background(), userID); err != nil {
		c.InternalServerError("failed to mark notifications read")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "all notifications marked read"})
}
