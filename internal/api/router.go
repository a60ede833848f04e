package api

import (
	"net/http"
	"time"

	"taskboard/internal/api/handler"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Config          *config.Config
	Log             *logrus.Entry
	AuthService     *service.AuthService
	TaskService     *service.TaskService
	FeedbackService *service.FeedbackService
	// RateLimitStore backs the /api rate limiter. Nil counts in process.
	RateLimitStore httprate.Option
	StartedAt      time.Time
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	devMode := cfg.IsDevelopment()
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RealIP(cfg.TrustProxy))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.Compress(5))

	handler.NewHealthHandler(cfg.AppEnv, d.StartedAt).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	authenticated := middleware.Authenticator(d.AuthService, d.Log)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow, d.RateLimitStore, d.Log))

		authHandler := handler.NewAuthHandler(d.AuthService, devMode)
		api.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r, authenticated)
		})

		taskHandler := handler.NewTaskHandler(d.TaskService, devMode)
		api.Route("/tasks", func(r chi.Router) {
			r.Use(authenticated)
			taskHandler.RegisterRoutes(r)
		})

		feedbackHandler := handler.NewFeedbackHandler(d.FeedbackService, devMode)
		api.Route("/feedback", feedbackHandler.RegisterRoutes)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})

	return r
}
