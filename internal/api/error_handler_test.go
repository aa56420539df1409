package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tientodo/todo-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	return rec, body
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"password mismatch", domain.ErrPasswordMismatch, http.StatusBadRequest, domain.ErrPasswordMismatch.Error()},
		{"username taken", domain.ErrUsernameTaken, http.StatusBadRequest, domain.ErrUsernameTaken.Error()},
		{"email taken", domain.ErrEmailTaken, http.StatusBadRequest, domain.ErrEmailTaken.Error()},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{"invalid refresh token", domain.ErrInvalidRefreshToken, http.StatusUnauthorized, domain.ErrInvalidRefreshToken.Error()},
		{"access token on refresh", domain.ErrNotRefreshToken, http.StatusUnauthorized, domain.ErrNotRefreshToken.Error()},
		{"user not found", domain.ErrUserNotFound, http.StatusUnauthorized, "user not found"},
		{"todo not found", domain.ErrTodoNotFound, http.StatusNotFound, domain.ErrTodoNotFound.Error()},
		{"subtask not found", domain.ErrSubtaskNotFound, http.StatusNotFound, domain.ErrSubtaskNotFound.Error()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := renderError(t, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if body.Status != tc.wantStatus {
				t.Fatalf("envelope status %d does not match http status %d", body.Status, tc.wantStatus)
			}
			if body.Message != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, body.Message)
			}
		})
	}
}

func TestErrorHandler_HTTPErrorPassthrough(t *testing.T) {
	rec, body := renderError(t, echo.NewHTTPError(http.StatusUnauthorized, "token has expired"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body.Message != "token has expired" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestErrorHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	rec, body := renderError(t, errors.New("mongo: connection reset by peer"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body.Message != "an unexpected error occurred" {
		t.Fatalf("internal details must not leak, got %q", body.Message)
	}
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := c.NoContent(http.StatusOK); err != nil {
		t.Fatalf("NoContent: %v", err)
	}
	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late failure"), c)

	if rec.Code != http.StatusOK {
		t.Fatalf("committed response must not be rewritten, got %d", rec.Code)
	}
}
