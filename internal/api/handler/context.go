package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// currentUser extracts the identity injected by the Auth middleware and
// fails closed before any service call: requests that skipped authentication
// (no bearer header) reach protected handlers without an identity and are
// rejected here with 401.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get("user").(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return user, nil
}
