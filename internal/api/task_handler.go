package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service"
)

// TaskHandler serves the authenticated user's tasks.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.taskService.List(r.Context(), p.UserID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}

// DueSoon handles GET /api/tasks/due-soon.
func (h *TaskHandler) DueSoon(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}

	window, err := parseDueSoonWindow(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.taskService.DueSoon(r.Context(), p.UserID, window)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), p.UserID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{Task: taskToResponse(task)})
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), p.UserID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		DueDate:     *req.DueDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Server error creating task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task created via API",
		slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, TaskEnvelope{Task: taskToResponse(task)})
}

// UpdateTask handles PUT /api/tasks/{id}. Only fields present in the body change.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), p.UserID, taskID, req.toDomain())
	if err != nil {
		HandleAPIError(w, r, err, "Server error updating task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{Task: taskToResponse(task)})
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, taskID, ok := handlePrincipalAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), p.UserID, taskID); err != nil {
		HandleAPIError(w, r, err, "Server error deleting task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Task deleted successfully"})
}
