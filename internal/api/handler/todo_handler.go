package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tientodo/todo-api/internal/api/metrics"
	"github.com/tientodo/todo-api/internal/core/ports"
)

// TodoHandler exposes the todo and subtask endpoints. Every operation runs
// against the authenticated user's id; a todo id belonging to someone else
// is a 404.
type TodoHandler struct {
	todoService ports.TodoService
}

func NewTodoHandler(todoService ports.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// List returns all todos for the authenticated user, newest first.
//
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Success      200  {array}  todoResponse
// @Router       /api/todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	todos, err := h.todoService.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodos(todos))
}

// ListActive returns the user's uncompleted todos.
func (h *TodoHandler) ListActive(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	todos, err := h.todoService.ListActive(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodos(todos))
}

// ListCompleted returns the user's completed todos.
func (h *TodoHandler) ListCompleted(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	todos, err := h.todoService.ListCompleted(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodos(todos))
}

// Search returns the user's todos matching the q parameter in title or
// description, case-insensitively.
func (h *TodoHandler) Search(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	keyword := c.QueryParam("q")
	if keyword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	todos, err := h.todoService.Search(c.Request().Context(), user.ID, keyword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodos(todos))
}

// Get returns a single todo with its subtasks.
func (h *TodoHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	todo, err := h.todoService.Get(c.Request().Context(), user.ID, c.Param("todoId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodo(todo))
}

// Create adds a new todo.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      createTodoRequest  true  "Todo details"
// @Success      201   {object}  todoResponse
// @Router       /api/todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	todo, err := h.todoService.Create(c.Request().Context(), user.ID, ports.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	metrics.TodosCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, mapTodo(todo))
}

// Update applies a partial update to a todo.
func (h *TodoHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	todo, err := h.todoService.Update(c.Request().Context(), user.ID, c.Param("todoId"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodo(todo))
}

// MarkComplete flips a todo to completed.
func (h *TodoHandler) MarkComplete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	todo, err := h.todoService.MarkComplete(c.Request().Context(), user.ID, c.Param("todoId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapTodo(todo))
}

// Delete removes a todo and its subtasks.
func (h *TodoHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.todoService.Delete(c.Request().Context(), user.ID, c.Param("todoId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Subtasks returns a todo's subtasks in creation order.
func (h *TodoHandler) Subtasks(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	subtasks, err := h.todoService.Subtasks(c.Request().Context(), user.ID, c.Param("todoId"))
	if err != nil {
		return err
	}
	out := make([]subtaskResponse, 0, len(subtasks))
	for _, s := range subtasks {
		out = append(out, mapSubtask(s))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateSubtask appends a subtask to a todo.
func (h *TodoHandler) CreateSubtask(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subtask, err := h.todoService.CreateSubtask(c.Request().Context(), user.ID, c.Param("todoId"), req.Title)
	if err != nil {
		return err
	}

	metrics.SubtasksCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, mapSubtask(*subtask))
}

// UpdateSubtask applies a partial update to a subtask.
func (h *TodoHandler) UpdateSubtask(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subtask, err := h.todoService.UpdateSubtask(
		c.Request().Context(), user.ID, c.Param("todoId"), c.Param("subtaskId"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSubtask(*subtask))
}

// MarkSubtaskComplete flips a subtask to completed.
func (h *TodoHandler) MarkSubtaskComplete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	subtask, err := h.todoService.MarkSubtaskComplete(
		c.Request().Context(), user.ID, c.Param("todoId"), c.Param("subtaskId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSubtask(*subtask))
}

// DeleteSubtask removes a subtask from a todo.
func (h *TodoHandler) DeleteSubtask(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.todoService.DeleteSubtask(
		c.Request().Context(), user.ID, c.Param("todoId"), c.Param("subtaskId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
