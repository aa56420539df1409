package ports

import (
	"context"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// CreateTodoInput carries the data for a new todo.
type CreateTodoInput struct {
	Title       string
	Description string
}

// TodoStats is the aggregate view behind GET /api/auth/me/stats.
type TodoStats struct {
	Total          int64
	Completed      int64
	Active         int64
	CompletionRate float64 // percent, one decimal place
}

// TodoService defines use-case operations on todos and subtasks. Every
// operation is scoped by the owner id; a todo belonging to another user is
// indistinguishable from a missing one.
type TodoService interface {
	List(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	ListActive(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	ListCompleted(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	Search(ctx context.Context, ownerID, keyword string) ([]*domain.Todo, error)
	Get(ctx context.Context, ownerID, todoID string) (*domain.Todo, error)
	Create(ctx context.Context, ownerID string, in CreateTodoInput) (*domain.Todo, error)
	Update(ctx context.Context, ownerID, todoID string, patch TodoPatch) (*domain.Todo, error)
	MarkComplete(ctx context.Context, ownerID, todoID string) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, todoID string) error

	Subtasks(ctx context.Context, ownerID, todoID string) ([]domain.Subtask, error)
	CreateSubtask(ctx context.Context, ownerID, todoID, title string) (*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, ownerID, todoID, subtaskID string, patch SubtaskPatch) (*domain.Subtask, error)
	MarkSubtaskComplete(ctx context.Context, ownerID, todoID, subtaskID string) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, ownerID, todoID, subtaskID string) error

	Stats(ctx context.Context, ownerID string) (*TodoStats, error)
}
