package api

import (
	"net/http"

	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/service"
)

// AdminHandler serves read-only views across all users. Routes using it must
// sit behind RequireRole(admin).
type AdminHandler struct {
	userService service.UserService
	taskService service.TaskService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(userService service.UserService, taskService service.TaskService) *AdminHandler {
	return &AdminHandler{userService: userService, taskService: taskService}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	users, err := h.userService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching users")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserListResponse{Users: usersToResponse(users)})
}

// ListTasks handles GET /api/admin/tasks.
func (h *AdminHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.taskService.ListAll(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}

// GetTask handles GET /api/admin/tasks/{id}.
func (h *AdminHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.GetAny(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{Task: taskToResponse(task)})
}
