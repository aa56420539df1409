package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tientodo/todo-api/internal/api/metrics"
	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	todoService ports.TodoService
}

func NewAuthHandler(authService ports.AuthService, todoService ports.TodoService) *AuthHandler {
	return &AuthHandler{authService: authService, todoService: todoService}
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type updateEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type changePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// authResponse carries the issued tokens and the identity they belong to.
// RefreshToken is omitted on the refresh flow.
type authResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Type         string `json:"type"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

func newAuthResponse(result *ports.AuthResult) authResponse {
	return authResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		Type:         "Bearer",
		UserID:       result.User.ID,
		Username:     result.User.Username,
		Email:        result.User.Email,
	}
}

// Register creates a new user account and signs them in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, newAuthResponse(result))
}

// Login verifies credentials and issues an access and refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]any
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, newAuthResponse(result))
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]any
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues(refreshResult(err)).Inc()
		return err
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, newAuthResponse(result))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_id":    user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// MeStats returns aggregate todo counts for the authenticated user.
func (h *AuthHandler) MeStats(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.todoService.Stats(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_todos":     stats.Total,
		"completed_todos": stats.Completed,
		"active_todos":    stats.Active,
		"completion_rate": stats.CompletionRate,
	})
}

// UpdateEmail changes the authenticated user's email address.
func (h *AuthHandler) UpdateEmail(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.UpdateEmail(c.Request().Context(), user.ID, req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword re-hashes and stores a new password. Tokens issued before
// the change remain valid until they expire.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), user.ID, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount removes the authenticated user and all their todos.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.authService.DeleteAccount(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func refreshResult(err error) string {
	if errors.Is(err, domain.ErrNotRefreshToken) {
		return "wrong_type"
	}
	return "invalid"
}
