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

// 512 MiB per file; matches what the storage tier will accept.
const maxFileSize = 512 << 20

type FileHandler struct {
	projectService  ProjectServiceInterface
	fileService     FileServiceInterface
	activityService ActivityServiceInterface
}

func NewFileHandler(
	projectService ProjectServiceInterface,
	fileService FileServiceInterface,
	activityService ActivityServiceInterface,
) *FileHandler {
	return &FileHandler{
		projectService:  projectService,
		fileService:     fileService,
		activityService: activityService,
	}
}

func (h *FileHandler) Register(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionCreateResource, false) {
		c.Forbidden("viewers cannot upload files")
		return
	}

	var req dto.RegisterFileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}
	if req.SizeBytes < 0 || req.SizeBytes > maxFileSize {
		c.BadRequest("invalid file size")
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	ctx := context.Background()
	file, err := h.fileService.Register(ctx, projectID, req.Name, req.ContentType, req.SizeBytes, userID)
	if err != nil {
		c.InternalServerError("failed to register file")
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.FileUploadedDetails{FileID: file.ID, Name: file.Name})

	_ = c.JSON(201, toFileResponse(file))
}

func (h *FileHandler) List(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	files, err := h.fileService.List(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to get files")
		return
	}

	response := make([]dto.FileResponse, len(files))
	for i := range files {
		response[i] = toFileResponse(&files[i])
	}

	_ = c.JSON(200, response)
}

func (h *FileHandler) Get(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.BadRequest("invalid file id")
		return
	}

	file, err := h.fileService.GetByID(context.Background(), projectID, fileID)
	if err != nil {
		c.NotFound("file not found")
		return
	}

	_ = c.JSON(200, toFileResponse(file))
}

func (h *FileHandler) Delete(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.BadRequest("invalid file id")
		return
	}

	ctx := context.Background()
	existing, err := h.fileService.GetByID(ctx, projectID, fileID)
	if err != nil {
		c.NotFound("file not found")
		return
	}

	if !policy.Decide(role, policy.ActionDeleteResource, existing.UploadedBy == userID) {
		c.Forbidden("viewers can only delete their own files")
		return
	}

	if err := h.fileService.Delete(ctx, projectID, fileID); err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			c.NotFound("file not found")
			return
		}
		c.InternalServerError("failed to delete file")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "file deleted"})
}
