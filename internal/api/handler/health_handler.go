package handler

import (
	"net/http"
	"time"

	"taskboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type HealthHandler struct {
	environment string
	startedAt   time.Time
	now         func() time.Time
}

func NewHealthHandler(environment string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{environment: environment, startedAt: startedAt, now: time.Now}
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/", h.banner)
}

func (h *HealthHandler) health(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	common.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   now.UTC(),
		Uptime:      now.Sub(h.startedAt).Seconds(),
		Environment: h.environment,
	})
}

func (h *HealthHandler) banner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Taskboard API is running"))
}
