package ports

import (
	"context"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// ListTodosFilter narrows a todo listing. OwnerID is always required — every
// query is scoped to the owning user so cross-user ids resolve as not found.
type ListTodosFilter struct {
	Completed *bool  // nil = all, true/false = only that completion state
	Search    string // optional: case-insensitive match on title or description
}

// TodoPatch carries a partial update; nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// SubtaskPatch carries a partial subtask update; nil fields are left untouched.
type SubtaskPatch struct {
	Title     *string
	Completed *bool
}

// TodoCounts holds the aggregate numbers behind the user stats endpoint.
type TodoCounts struct {
	Total     int64
	Completed int64
}

// TodoRepository defines persistence operations for todos and their embedded
// subtasks. All operations take the owner id and must scope by it.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	FindByID(ctx context.Context, ownerID, todoID string) (*domain.Todo, error)
	FindByOwner(ctx context.Context, ownerID string, filter ListTodosFilter) ([]*domain.Todo, error)
	Update(ctx context.Context, ownerID, todoID string, patch TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, todoID string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	CountByOwner(ctx context.Context, ownerID string) (TodoCounts, error)

	AddSubtask(ctx context.Context, ownerID, todoID string, subtask domain.Subtask) (*domain.Todo, error)
	UpdateSubtask(ctx context.Context, ownerID, todoID, subtaskID string, patch SubtaskPatch) (*domain.Todo, error)
	RemoveSubtask(ctx context.Context, ownerID, todoID, subtaskID string) error
}
