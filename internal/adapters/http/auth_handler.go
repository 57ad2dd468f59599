package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasknote/internal/application/services"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
)

// AuthHandler handles account requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} entities.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Nickname, req.Password)
	if err != nil {
		return mapError(h.logger, "Register", err)
	}

	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Nickname, req.Password)
	if err != nil {
		return mapError(h.logger, "Login", err)
	}

	return c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer"})
}
