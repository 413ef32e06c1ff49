package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/api"
	"github.com/andresuchdata/shipment-priority/internal/app"
	"github.com/andresuchdata/shipment-priority/internal/config"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/andresuchdata/shipment-priority/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetOutput(os.Stdout, cfg.Server.Mode)
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	planner, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer planner.Close()

	router := api.NewRouter(&api.Services{
		PlannerService:   planner.Planner,
		ReferenceService: planner.References,
		UrgentThreshold:  cfg.Planner.UrgentThreshold,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	go scheduleRefresh(ctx, planner.Planner, cfg.Planner.RefreshInterval)
	for _, w := range planner.Watchers {
		logger.Log.Info().Str("target", w.Target()).Msg("Watching drive source")
		go w.Run(ctx)
	}

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	cancel()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// scheduleRefresh recomputes the plan on every tick so cached sources are
// refetched at the freshness boundary rather than on the next request.
func scheduleRefresh(ctx context.Context, planner *service.PlannerService, interval time.Duration) {
	if interval <= 0 {
		logger.Log.Info().Msg("Scheduled refresh disabled")
		return
	}

	run := func() {
		res, err := planner.Plan(ctx, service.PlanRequest{ForceRefresh: true})
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.Error().Err(err).Msg("Scheduled refresh failed")
			}
			return
		}
		logger.Log.Info().
			Str("run_id", res.RunID).
			Str("status", string(res.Status)).
			Int("events", len(res.Events)).
			Int("issues", len(res.Report.Issues)).
			Msg("Scheduled refresh complete")
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
