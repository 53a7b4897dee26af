package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/ports"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create godoc
// @Summary Create a task on a note
// @Tags tasks
// @Accept json
// @Produce json
// @Param noteId path string true "Note ID"
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} Response
// @Security BearerAuth
// @Router /tasks/notes/{noteId} [post]
func (h *TaskHandler) Create(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "noteId")
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), noteID, claims.UserID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusCreated, map[string]interface{}{"task": task})
}

// ListByNote returns the tasks of one note in the fixed workflow order.
func (h *TaskHandler) ListByNote(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "noteId")
	if err != nil {
		return err
	}

	page, limit, offset := parsePagination(c)
	filter, ferr := parseTaskFilter(c, limit, offset)
	if ferr != nil {
		return ferr
	}

	tasks, total, err := h.tasks.ListByNote(c.Request().Context(), noteID, claims.UserID, filter)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{
		"tasks":      tasks,
		"pagination": NewPagination(page, limit, total),
	})
}

// List returns tasks across every note the caller can access.
func (h *TaskHandler) List(c echo.Context) error {
	claims := currentClaims(c)

	page, limit, offset := parsePagination(c)
	filter, ferr := parseTaskFilter(c, limit, offset)
	if ferr != nil {
		return ferr
	}

	tasks, total, err := h.tasks.ListForUser(c.Request().Context(), claims.UserID, filter)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{
		"tasks":      tasks,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *TaskHandler) Get(c echo.Context) error {
	claims := currentClaims(c)

	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	task, err := h.tasks.Get(c.Request().Context(), taskID, claims.UserID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"task": task})
}

func (h *TaskHandler) Update(c echo.Context) error {
	claims := currentClaims(c)

	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.Request().Context(), taskID, claims.UserID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"task": task})
}

func (h *TaskHandler) Delete(c echo.Context) error {
	claims := currentClaims(c)

	taskID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.Request().Context(), taskID, claims.UserID); err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// parseTaskFilter reads the optional status/priority/assigneeId query filters.
func parseTaskFilter(c echo.Context, limit, offset int) (ports.TaskFilter, error) {
	filter := ports.TaskFilter{Limit: limit, Offset: offset}

	if v := c.QueryParam("status"); v != "" {
		status := entities.TaskStatus(v)
		if !status.IsValid() {
			return filter, respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter", nil)
		}
		filter.Status = &status
	}

	if v := c.QueryParam("priority"); v != "" {
		priority := entities.TaskPriority(v)
		if !priority.IsValid() {
			return filter, respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid priority filter", nil)
		}
		filter.Priority = &priority
	}

	if v := c.QueryParam("assigneeId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid assigneeId filter", nil)
		}
		filter.AssigneeID = &id
	}

	return filter, nil
}
