package domain

import (
	"errors"
	"time"
)

var ErrTodoNotFound = errors.New("todo not found")
var ErrSubtaskNotFound = errors.New("subtask not found")

// Todo is owned by exactly one user. Subtasks are embedded and ordered by
// creation; deleting a todo removes them with it.
type Todo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Subtasks    []Subtask `json:"subtasks"`
}

// Subtask belongs to exactly one todo.
type Subtask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
