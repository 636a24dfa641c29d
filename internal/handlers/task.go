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

type TaskHandler struct {
	projectService  ProjectServiceInterface
	taskService     TaskServiceInterface
	activityService ActivityServiceInterface
}

func NewTaskHandler(
	projectService ProjectServiceInterface,
	taskService TaskServiceInterface,
	activityService ActivityServiceInterface,
) *TaskHandler {
	return &TaskHandler{
		projectService:  projectService,
		taskService:     taskService,
		activityService: activityService,
	}
}

func (h *TaskHandler) Create(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionCreateResource, false) {
		c.Forbidden("viewers cannot create tasks")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	ctx := context.Background()
	task, err := h.taskService.Create(ctx, projectID, req.Title, req.Description, req.AssigneeID, userID)
	if err != nil {
		c.InternalServerError("failed to create task")
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.TaskCreatedDetails{TaskID: task.ID, Title: task.Title})

	_ = c.JSON(201, toTaskResponse(task))
}

func (h *TaskHandler) List(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to get tasks")
		return
	}

	response := make([]dto.TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = toTaskResponse(&tasks[i])
	}

	_ = c.JSON(200, response)
}

func (h *TaskHandler) Get(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, err := h.taskService.GetByID(context.Background(), projectID, taskID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	_ = c.JSON(200, toTaskResponse(task))
}

func (h *TaskHandler) Update(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		c.BadRequest("title cannot be empty")
		return
	}
	if req.Status != nil && !models.ValidTaskStatus(*req.Status) {
		c.BadRequest("status must be todo, in_progress or done")
		return
	}
	if req.Position != nil && *req.Position < 0 {
		c.BadRequest("position cannot be negative")
		return
	}

	ctx := context.Background()
	existing, err := h.taskService.GetByID(ctx, projectID, taskID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	if !policy.Decide(role, policy.ActionUpdateResource, existing.CreatedBy == userID) {
		c.Forbidden("viewers can only edit their own tasks")
		return
	}

	task, err := h.taskService.Update(ctx, projectID, taskID,
		req.Title, req.Description, req.Status, req.AssigneeID, req.ClearAssignee, req.Position)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to update task")
		return
	}

	if req.Status != nil && *req.Status != existing.Status {
		_ = h.activityService.Record(ctx, projectID, userID, &models.TaskStatusChangedDetails{
			TaskID:    task.ID,
			OldStatus: existing.Status,
			NewStatus: task.Status,
		})
	}

	_ = c.JSON(200, toTaskResponse(task))
}

func (h *TaskHandler) Delete(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	ctx := context.Background()
	existing, err := h.taskService.GetByID(ctx, projectID, taskID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	if !policy.Decide(role, policy.ActionDeleteResource, existing.CreatedBy == userID) {
		c.Forbidden("viewers can only delete their own tasks")
		return
	}

	if err := h.taskService.Delete(ctx, projectID, taskID); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to delete task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task deleted"})
}
