package handler

import (
	"time"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

type createTodoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// updateTodoRequest is a partial update: absent fields are left untouched.
type updateTodoRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Completed   *bool   `json:"completed"`
}

type createSubtaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type updateSubtaskRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=200"`
	Completed *bool   `json:"completed"`
}

type subtaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type todoResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Completed   bool              `json:"completed"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Subtasks    []subtaskResponse `json:"subtasks"`
}

func (r updateTodoRequest) patch() ports.TodoPatch {
	return ports.TodoPatch{Title: r.Title, Description: r.Description, Completed: r.Completed}
}

func (r updateSubtaskRequest) patch() ports.SubtaskPatch {
	return ports.SubtaskPatch{Title: r.Title, Completed: r.Completed}
}

func mapSubtask(s domain.Subtask) subtaskResponse {
	return subtaskResponse{
		ID:        s.ID,
		Title:     s.Title,
		Completed: s.Completed,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func mapTodo(t *domain.Todo) todoResponse {
	subtasks := make([]subtaskResponse, 0, len(t.Subtasks))
	for _, s := range t.Subtasks {
		subtasks = append(subtasks, mapSubtask(s))
	}
	return todoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Subtasks:    subtasks,
	}
}

func mapTodos(todos []*domain.Todo) []todoResponse {
	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, mapTodo(t))
	}
	return out
}
