package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/app/service"
	"taskboard/internal/app/worker"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/database"
	"taskboard/internal/platform/logger"
	"taskboard/internal/platform/queue"
	"taskboard/internal/platform/telemetry"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE:  runServe,
}

// stores holds the repositories for the configured driver plus a closer for
// whatever connection backs them.
type stores struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			users: repository.NewPgUserRepository(db),
			tasks: repository.NewPgTaskRepository(db),
			close: func() { db.Close() },
		}, nil
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			users: repository.NewMongoUserRepository(db),
			tasks: repository.NewMongoTaskRepository(db),
			close: func() { client.Disconnect(context.Background()) },
		}, nil
	default:
		log.Warn("Using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{users: mem.Users(), tasks: mem.Tasks(), close: func() {}}, nil
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New("taskboard", cfg.LogLevel)
	log.WithField("env", cfg.AppEnv).Info("Configuration loaded")

	// 2. Initialize Tracing
	shutdownTracing, err := telemetry.Setup(ctx, "taskboard", cfg.OTelEndpoint)
	if err != nil {
		log.WithError(err).Warn("Tracing disabled")
	}
	defer shutdownTracing(context.Background())

	// 3. Initialize Storage
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer st.close()
	log.WithField("driver", cfg.DBDriver).Info("Store ready")

	// 4. Initialize Redis
	var (
		rateLimitStore httprate.Option
		feedbackQueue  *queue.FeedbackQueue
	)
	if cfg.RedisEnabled {
		var rdb *redis.Client
		rdb, err = queue.ConnectRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		rateLimitStore = queue.RateLimitCounter(rdb, log)
		if cfg.FeedbackEnabled() {
			feedbackQueue = queue.NewFeedbackQueue(rdb, cfg.FeedbackQueueName)
		}
	}

	// 5. Initialize Services
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens := security.NewTokenIssuer(security.TokenConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTExp})
	authService, err := service.NewAuthService(st.users, hasher, tokens, log)
	if err != nil {
		return err
	}
	taskService := service.NewTaskService(st.tasks, log)

	var feedbackService *service.FeedbackService
	if feedbackQueue != nil {
		feedbackService = service.NewFeedbackService(feedbackQueue, log)
	} else {
		log.Warn("Feedback delivery is not configured; /api/feedback will return 503")
		feedbackService = service.NewFeedbackService(nil, log)
	}

	// 6. Start Background Workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if feedbackQueue != nil {
		var mailer worker.Mailer = worker.NewLogMailer(log)
		if cfg.EmailHost != "" {
			mailer, err = worker.NewSMTPMailer(worker.SMTPConfig{
				Host:      cfg.EmailHost,
				Port:      cfg.EmailPort,
				User:      cfg.EmailUser,
				Pass:      cfg.EmailPass,
				Recipient: cfg.FeedbackRecipientEmail,
			})
			if err != nil {
				return err
			}
		}
		go worker.NewFeedbackWorker(feedbackQueue, mailer, log).Start(workerCtx)
	}
	if cfg.IsProduction() && cfg.BackendURL != "" {
		go worker.NewKeepAlive(cfg.BackendURL, cfg.KeepAliveInterval, log).Start(workerCtx)
	}

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(api.Deps{
		Config:          cfg,
		Log:             log,
		AuthService:     authService,
		TaskService:     taskService,
		FeedbackService: feedbackService,
		RateLimitStore:  rateLimitStore,
		StartedAt:       time.Now(),
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.APIPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 8. Graceful Shutdown
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.APIPort, err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("Server and workers stopped gracefully")
	return nil
}
