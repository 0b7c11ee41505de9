package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskpipe/internal/api/shared"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/redact"
	"github.com/phrazzld/taskpipe/internal/service"
)

// TaskHandler serves the /v1/tasks endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// Routes registers the task endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/tasks", h.GetTasks)
	r.Get("/tasks/by-person", h.GetTasksByPerson)
	r.Post("/tasks", h.CreateTask)
	r.Put("/tasks", h.EditTask)
	r.Delete("/tasks/{id}", h.DeleteTask)
}

// GetTasks handles GET /v1/tasks?id=1&id=2. Without ids it lists every task.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	ids, err := getQueryIDs(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.GetTasksByIDs(r.Context(), ids)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// GetTasksByPerson handles GET /v1/tasks/by-person?id=1. Each person in the
// response carries its tasks.
func (h *TaskHandler) GetTasksByPerson(w http.ResponseWriter, r *http.Request) {
	ids, err := getQueryIDs(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	persons, err := h.tasks.GetTasksByPersonIDs(r.Context(), ids)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, persons)
}

// CreateTask handles POST /v1/tasks. The task is queued, not stored, so
// the response is 202 without an id.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, ok := h.decodeTaskRequest(w, r, log)
	if !ok {
		return
	}

	if err := h.tasks.InsertTask(r.Context(), req.ToDomain()); err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// EditTask handles PUT /v1/tasks. The body carries the id.
func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, ok := h.decodeTaskRequest(w, r, log)
	if !ok {
		return
	}

	updated, err := h.tasks.EditTask(r.Context(), req.ToDomain())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	log.Debug("task updated", slog.Int64("task_id", updated.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

// DeleteTask handles DELETE /v1/tasks/{id} and returns the removed task.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		log.Warn("invalid task id", slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err, "")
		return
	}

	deleted, err := h.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deleted)
}

func (h *TaskHandler) decodeTaskRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger) (TaskRequest, bool) {
	var req TaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return req, false
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return req, false
	}
	return req, true
}
