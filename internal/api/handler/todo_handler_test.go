package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

type stubTodoService struct {
	listFn    func(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	getFn     func(ctx context.Context, ownerID, todoID string) (*domain.Todo, error)
	createFn  func(ctx context.Context, ownerID string, in ports.CreateTodoInput) (*domain.Todo, error)
	searchFn  func(ctx context.Context, ownerID, keyword string) ([]*domain.Todo, error)
	subtaskFn func(ctx context.Context, ownerID, todoID, title string) (*domain.Subtask, error)
	statsFn   func(ctx context.Context, ownerID string) (*ports.TodoStats, error)
}

func (s *stubTodoService) List(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	return s.listFn(ctx, ownerID)
}

func (s *stubTodoService) ListActive(context.Context, string) ([]*domain.Todo, error) {
	return nil, nil
}

func (s *stubTodoService) ListCompleted(context.Context, string) ([]*domain.Todo, error) {
	return nil, nil
}

func (s *stubTodoService) Search(ctx context.Context, ownerID, keyword string) ([]*domain.Todo, error) {
	return s.searchFn(ctx, ownerID, keyword)
}

func (s *stubTodoService) Get(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	return s.getFn(ctx, ownerID, todoID)
}

func (s *stubTodoService) Create(ctx context.Context, ownerID string, in ports.CreateTodoInput) (*domain.Todo, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubTodoService) Update(context.Context, string, string, ports.TodoPatch) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (s *stubTodoService) MarkComplete(context.Context, string, string) (*domain.Todo, error) {
	return nil, domain.ErrTodoNotFound
}

func (s *stubTodoService) Delete(context.Context, string, string) error {
	return domain.ErrTodoNotFound
}

func (s *stubTodoService) Subtasks(context.Context, string, string) ([]domain.Subtask, error) {
	return nil, domain.ErrTodoNotFound
}

func (s *stubTodoService) CreateSubtask(ctx context.Context, ownerID, todoID, title string) (*domain.Subtask, error) {
	return s.subtaskFn(ctx, ownerID, todoID, title)
}

func (s *stubTodoService) UpdateSubtask(context.Context, string, string, string, ports.SubtaskPatch) (*domain.Subtask, error) {
	return nil, domain.ErrSubtaskNotFound
}

func (s *stubTodoService) MarkSubtaskComplete(context.Context, string, string, string) (*domain.Subtask, error) {
	return nil, domain.ErrSubtaskNotFound
}

func (s *stubTodoService) DeleteSubtask(context.Context, string, string, string) error {
	return domain.ErrSubtaskNotFound
}

func (s *stubTodoService) Stats(ctx context.Context, ownerID string) (*ports.TodoStats, error) {
	return s.statsFn(ctx, ownerID)
}

func withAlice(c echo.Context) {
	c.Set("user", &domain.User{ID: "user_1", Username: "alice"})
}

func TestTodoHandler_List_FailsClosedWithoutIdentity(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		listFn: func(context.Context, string) ([]*domain.Todo, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newTestContext(t, http.MethodGet, "/api/todos", "")

	err := handler.List(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}
}

func TestTodoHandler_List_ScopesToOwner(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		listFn: func(_ context.Context, ownerID string) ([]*domain.Todo, error) {
			if ownerID != "user_1" {
				t.Fatalf("expected owner user_1, got %s", ownerID)
			}
			return []*domain.Todo{{ID: "t1", Title: "task", OwnerID: ownerID}}, nil
		},
	})

	c, rec := newTestContext(t, http.MethodGet, "/api/todos", "")
	withAlice(c)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTodoHandler_Create(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		createFn: func(_ context.Context, ownerID string, in ports.CreateTodoInput) (*domain.Todo, error) {
			if in.Title != "buy milk" || in.Description != "2 litres" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Todo{ID: "t1", OwnerID: ownerID, Title: in.Title, Description: in.Description}, nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/api/todos",
		`{"title":"buy milk","description":"2 litres"}`)
	withAlice(c)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["id"] != "t1" || resp["title"] != "buy milk" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if _, present := resp["user_id"]; present {
		t.Fatalf("owner id must not leak into the response")
	}
}

func TestTodoHandler_Create_MissingTitle(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		createFn: func(context.Context, string, ports.CreateTodoInput) (*domain.Todo, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newTestContext(t, http.MethodPost, "/api/todos", `{"description":"no title"}`)
	withAlice(c)

	err := handler.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestTodoHandler_Get_NotFoundPropagates(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		getFn: func(context.Context, string, string) (*domain.Todo, error) {
			return nil, domain.ErrTodoNotFound
		},
	})

	c, _ := newTestContext(t, http.MethodGet, "/api/todos/nope", "")
	withAlice(c)
	c.SetParamNames("todoId")
	c.SetParamValues("nope")

	if err := handler.Get(c); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestTodoHandler_Search_RequiresQuery(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		searchFn: func(context.Context, string, string) ([]*domain.Todo, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newTestContext(t, http.MethodGet, "/api/todos/search", "")
	withAlice(c)

	err := handler.Search(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestTodoHandler_CreateSubtask(t *testing.T) {
	handler := NewTodoHandler(&stubTodoService{
		subtaskFn: func(_ context.Context, ownerID, todoID, title string) (*domain.Subtask, error) {
			if ownerID != "user_1" || todoID != "t1" || title != "step one" {
				t.Fatalf("unexpected args: %s %s %s", ownerID, todoID, title)
			}
			return &domain.Subtask{ID: "s1", Title: title}, nil
		},
	})

	c, rec := newTestContext(t, http.MethodPost, "/api/todos/t1/subtasks", `{"title":"step one"}`)
	withAlice(c)
	c.SetParamNames("todoId")
	c.SetParamValues("t1")

	if err := handler.CreateSubtask(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["id"] != "s1" || resp["title"] != "step one" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_MeStats(t *testing.T) {
	todoStub := &stubTodoService{
		statsFn: func(_ context.Context, ownerID string) (*ports.TodoStats, error) {
			if ownerID != "user_1" {
				t.Fatalf("expected owner user_1, got %s", ownerID)
			}
			return &ports.TodoStats{Total: 4, Completed: 1, Active: 3, CompletionRate: 25}, nil
		},
	}
	handler := NewAuthHandler(&stubAuthService{}, todoStub)

	c, rec := newTestContext(t, http.MethodGet, "/api/auth/me/stats", "")
	withAlice(c)

	if err := handler.MeStats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["total_todos"] != float64(4) || resp["completion_rate"] != float64(25) {
		t.Fatalf("unexpected stats body: %+v", resp)
	}
}
