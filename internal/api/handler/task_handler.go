package handler

import (
	"net/http"

	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService *service.TaskService
	devMode     bool
}

func NewTaskHandler(taskService *service.TaskService, devMode bool) *TaskHandler {
	return &TaskHandler{taskService: taskService, devMode: devMode}
}

// RegisterRoutes expects r to be behind the Authenticator middleware.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.getTask)
		r.Put("/", h.updateTask)
		r.Delete("/", h.deleteTask)
	})
}

func (h *TaskHandler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrUnauthenticated, h.devMode)
	}
	return userID, ok
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	tasks, err := h.taskService.List(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req service.CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidPayload(w, err)
		return
	}
	task, err := h.taskService.Create(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.Get(r.Context(), userID, chi.URLParam(r, "taskID"))
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req service.UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidPayload(w, err)
		return
	}
	task, err := h.taskService.Update(r.Context(), userID, chi.URLParam(r, "taskID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.taskService.Delete(r.Context(), userID, chi.URLParam(r, "taskID")); err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.SuccessResponse{Success: true})
}
