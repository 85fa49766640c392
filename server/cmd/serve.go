package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/config"
	"github.com/phambaophuc/image-ingest/internal/http/handlers"
	"github.com/phambaophuc/image-ingest/internal/http/routes"
	"github.com/phambaophuc/image-ingest/internal/services/auth"
	"github.com/phambaophuc/image-ingest/internal/services/ingest"
	"github.com/phambaophuc/image-ingest/internal/services/metadata"
	"github.com/phambaophuc/image-ingest/internal/services/processor"
	"github.com/phambaophuc/image-ingest/internal/services/queue"
	"github.com/phambaophuc/image-ingest/internal/services/recorder"
	"github.com/phambaophuc/image-ingest/internal/services/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newVerifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.Verifier, func()) {
	if cfg.Auth.Backend != "redis" {
		return auth.NewStaticVerifier(cfg.Auth.Username, cfg.Auth.Password), func() {}
	}

	client := newRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis is not reachable, credential checks will fail until it is", zap.Error(err))
	}
	return auth.NewRedisVerifier(client, cfg.Auth.RedisKey), func() { client.Close() }
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	startupCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	// Initialize services
	rec, err := recorder.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.Migrate(startupCtx); err != nil {
		return err
	}

	store, err := storage.NewObjectStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close object store", zap.String("storage", store.Name()), zap.Error(err))
		}
	}()

	validator, err := metadata.NewValidator()
	if err != nil {
		return err
	}

	verifier, closeVerifier := newVerifier(startupCtx, cfg, logger)
	defer closeVerifier()

	publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
	defer publisher.Close()

	proc := processor.NewImageProcessor(cfg.Storage.MaxImagePixels)
	writer := storage.NewWriter(store, proc, logger)
	ingestService := ingest.NewService(proc, validator, writer, rec, publisher, logger)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(proc, ingestService, logger, cfg)
	healthHandler := handlers.NewHealthHandler(rec, store, publisher)

	router := routes.NewRouter(imageHandler, healthHandler, verifier, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.Handler(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("storage", store.Name()),
			zap.String("database", cfg.Database.Driver),
			zap.String("auth", cfg.Auth.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed to start", zap.Error(err))
			return err
		}
	case <-quit:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
