package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// NoteHandler serves the notes nested under a section
type NoteHandler struct {
	noteRepo ports.NoteRepository
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteRepo ports.NoteRepository, taskRepo ports.TaskRepository, logger *logger.Logger) *NoteHandler {
	return &NoteHandler{
		noteRepo: noteRepo,
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// CreateNote godoc
// @Summary Create a note in a section
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param request body NoteRequest true "Note"
// @Success 201 {object} entities.Note
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id}/notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.noteRepo.Create(c.Request().Context(), c.Param("id"), req.NoteFields, req.ID)
	if err != nil {
		return mapError(h.logger, "Create note", err)
	}

	return c.JSON(http.StatusCreated, note)
}

// ListNotes godoc
// @Summary List the notes of a section
// @Tags notes
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {array} entities.Note
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id}/notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	ctx := c.Request().Context()
	sectionID := c.Param("id")

	if _, err := h.taskRepo.GetByID(ctx, sectionID); err != nil {
		return mapError(h.logger, "List notes", err)
	}

	notes, err := h.noteRepo.ListByTask(ctx, sectionID)
	if err != nil {
		return mapError(h.logger, "List notes", err)
	}
	if notes == nil {
		notes = []*entities.Note{}
	}

	return c.JSON(http.StatusOK, notes)
}

// GetNote godoc
// @Summary Get a note
// @Tags notes
// @Produce json
// @Param id path string true "Section ID"
// @Param noteId path string true "Note ID"
// @Success 200 {object} entities.Note
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id}/notes/{noteId} [get]
func (h *NoteHandler) GetNote(c echo.Context) error {
	note, err := h.noteRepo.GetByID(c.Request().Context(), c.Param("noteId"), c.Param("id"))
	if err != nil {
		return mapError(h.logger, "Get note", err)
	}

	return c.JSON(http.StatusOK, note)
}

// UpdateNote godoc
// @Summary Replace a note
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param noteId path string true "Note ID"
// @Param request body NoteRequest true "Note"
// @Success 200 {object} entities.Note
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id}/notes/{noteId} [put]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	var req NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.noteRepo.Update(c.Request().Context(), c.Param("noteId"), c.Param("id"), req.NoteFields)
	if err != nil {
		return mapError(h.logger, "Update note", err)
	}

	return c.JSON(http.StatusOK, note)
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Param id path string true "Section ID"
// @Param noteId path string true "Note ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id}/notes/{noteId} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	n, err := h.noteRepo.Delete(c.Request().Context(), c.Param("noteId"), c.Param("id"))
	if err != nil {
		return mapError(h.logger, "Delete note", err)
	}
	if n == 0 {
		return mapError(h.logger, "Delete note", entities.ErrNoteNotFound)
	}

	return c.NoContent(http.StatusNoContent)
}
