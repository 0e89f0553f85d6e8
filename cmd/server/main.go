// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/masumrana0/Uploader/internal/api"
	"github.com/masumrana0/Uploader/internal/config"
	"github.com/masumrana0/Uploader/internal/service"
	"github.com/masumrana0/Uploader/internal/staging"
	"github.com/masumrana0/Uploader/internal/storage"
	"github.com/masumrana0/Uploader/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
		logger.UseJSON(os.Stdout)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()

	// Initialize object storage
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize object storage")
	}

	var metrics prometheus.Gatherer
	if cfg.Server.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observer, err := storage.NewPrometheusObserver("uploader_storage", reg)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to register metrics")
		}
		store = storage.WithObserver(store, observer)
		metrics = reg
	}

	// Initialize staging area and drop leftovers from a previous run
	area, err := staging.NewDiskArea(cfg.Upload.StagingDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize staging area")
	}
	if cfg.Upload.StagingMaxAge > 0 {
		removed, err := area.Sweep(time.Now().Add(-cfg.Upload.StagingMaxAge))
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Staging sweep incomplete")
		}
		if removed > 0 {
			logger.Log.Info().Int("removed", removed).Msg("Removed stale staged files")
		}
	}

	// Initialize services
	services := &api.Services{
		Uploader: service.NewUploader(store, area, service.UploaderConfig{
			MaxFiles:    cfg.Upload.MaxFiles,
			MaxFileSize: cfg.Upload.MaxFileSize,
			ChunkSize:   cfg.Upload.ChunkSize,
		}),
		Deleter: service.NewDeleter(store, storage.ResolverFor(store)),
	}

	// Initialize HTTP server
	router := api.NewRouter(services, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		FormField:      cfg.Upload.FormFieldName,
		MaxMemory:      cfg.Upload.MaxMemoryBytes,
		MaxBody:        cfg.Upload.MaxRequestBytes(),
		Metrics:        metrics,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("driver", cfg.Storage.Driver).
			Str("bucket", cfg.Storage.Bucket).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// In-flight batches hold the request open until every chunk settles, so
	// allow them time to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
