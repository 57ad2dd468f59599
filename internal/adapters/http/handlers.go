package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
)

// Request/Response types

type CredentialsRequest struct {
	Nickname string `json:"nickname" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SectionRequest is the body of section creates and updates. ID is honored on create only.
type SectionRequest struct {
	ID string `json:"id,omitempty"`
	entities.TaskFields
}

// NoteRequest is the body of note creates and updates. ID is honored on create only.
type NoteRequest struct {
	ID string `json:"id,omitempty"`
	entities.NoteFields
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// bindAndValidate decodes the body into req and runs the struct validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// mapError turns store errors into HTTP errors
func mapError(log *logger.Logger, op string, err error) error {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	log.Errorw(op+" failed", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}
