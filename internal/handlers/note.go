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

type NoteHandler struct {
	projectService  ProjectServiceInterface
	noteService     NoteServiceInterface
	activityService ActivityServiceInterface
}

func NewNoteHandler(
	projectService ProjectServiceInterface,
	noteService NoteServiceInterface,
	activityService ActivityServiceInterface,
) *NoteHandler {
	return &NoteHandler{
		projectService:  projectService,
		noteService:     noteService,
		activityService: activityService,
	}
}

func (h *NoteHandler) Create(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	if !policy.Decide(role, policy.ActionCreateResource, false) {
		c.Forbidden("viewers cannot create notes")
		return
	}

	var req dto.CreateNoteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	ctx := context.Background()
	note, err := h.noteService.Create(ctx, projectID, req.Title, req.Content, userID)
	if err != nil {
		c.InternalServerError("failed to create note")
		return
	}

	_ = h.activityService.Record(ctx, projectID, userID,
		&models.NoteCreatedDetails{NoteID: note.ID, Title: note.Title})

	_ = c.JSON(201, toNoteResponse(note))
}

func (h *NoteHandler) List(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	notes, err := h.noteService.List(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to get notes")
		return
	}

	response := make([]dto.NoteResponse, len(notes))
	for i := range notes {
		response[i] = toNoteResponse(&notes[i])
	}

	_ = c.JSON(200, response)
}

func (h *NoteHandler) Get(c *drift.Context) {
	_, projectID, _, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.BadRequest("invalid note id")
		return
	}

	note, err := h.noteService.GetByID(context.Background(), projectID, noteID)
	if err != nil {
		c.NotFound("note not found")
		return
	}

	_ = c.JSON(200, toNoteResponse(note))
}

func (h *NoteHandler) Update(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.BadRequest("invalid note id")
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		c.BadRequest("title cannot be empty")
		return
	}

	ctx := context.Background()
	existing, err := h.noteService.GetByID(ctx, projectID, noteID)
	if err != nil {
		c.NotFound("note not found")
		return
	}

	if !policy.Decide(role, policy.ActionUpdateResource, existing.CreatedBy == userID) {
		c.Forbidden("viewers can only edit their own notes")
		return
	}

	note, err := h.noteService.Update(ctx, projectID, noteID, req.Title, req.Content, userID)
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			c.NotFound("note not found")
			return
		}
		c.InternalServerError("failed to update note")
		return
	}

	_ = c.JSON(200, toNoteResponse(note))
}

func (h *NoteHandler) Delete(c *drift.Context) {
	userID, projectID, role, ok := requireMember(c, h.projectService)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.BadRequest("invalid note id")
		return
	}

	ctx := context.Background()
	existing, err := h.noteService.GetByID(ctx, projectID, noteID)
	if err != nil {
		c.NotFound("note not found")
		return
	}

	if !policy.Decide(role, policy.ActionDeleteResource, existing.CreatedBy == userID) {
		c.Forbidden("viewers can only delete their own notes")
		return
	}

	if err := h.noteService.Delete(ctx, projectID, noteID); err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			c.NotFound("note not found")
			return
		}
		c.InternalServerError("failed to delete note")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "note deleted"})
}
