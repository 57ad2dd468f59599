package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// SectionHandler serves the sections resource
type SectionHandler struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(taskRepo ports.TaskRepository, logger *logger.Logger) *SectionHandler {
	return &SectionHandler{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// CreateSection godoc
// @Summary Create a section
// @Description Creates a section. A client-supplied id is kept; an existing id yields 409.
// @Tags sections
// @Accept json
// @Produce json
// @Param request body SectionRequest true "Section"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections [post]
func (h *SectionHandler) CreateSection(c echo.Context) error {
	var req SectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskRepo.Create(c.Request().Context(), req.TaskFields, req.ID)
	if err != nil {
		return mapError(h.logger, "Create section", err)
	}

	return c.JSON(http.StatusCreated, task)
}

// ListSections godoc
// @Summary List sections
// @Tags sections
// @Produce json
// @Success 200 {array} entities.Task
// @Security BearerAuth
// @Router /sections [get]
func (h *SectionHandler) ListSections(c echo.Context) error {
	tasks, err := h.taskRepo.List(c.Request().Context())
	if err != nil {
		return mapError(h.logger, "List sections", err)
	}
	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetSection godoc
// @Summary Get a section
// @Tags sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id} [get]
func (h *SectionHandler) GetSection(c echo.Context) error {
	task, err := h.taskRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(h.logger, "Get section", err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateSection godoc
// @Summary Replace a section
// @Tags sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param request body SectionRequest true "Section"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id} [put]
func (h *SectionHandler) UpdateSection(c echo.Context) error {
	var req SectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskRepo.Update(c.Request().Context(), c.Param("id"), req.TaskFields)
	if err != nil {
		return mapError(h.logger, "Update section", err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteSection godoc
// @Summary Delete a section and its notes
// @Tags sections
// @Param id path string true "Section ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sections/{id} [delete]
func (h *SectionHandler) DeleteSection(c echo.Context) error {
	n, err := h.taskRepo.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(h.logger, "Delete section", err)
	}
	if n == 0 {
		return mapError(h.logger, "Delete section", entities.ErrTaskNotFound)
	}

	return c.NoContent(http.StatusNoContent)
}
