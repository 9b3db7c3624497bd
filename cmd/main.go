package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrtool/internal/config"
	"hrtool/internal/draw"
	"hrtool/internal/handlers"
	"hrtool/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

func main() {
	defer logger.Init("hrtool", true, false, io.Discard).Close()

	// 1. Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize the HR Service
	hrService := services.NewHRService(services.Options{
		Draw: draw.Options{Cycles: cfg.DrawCycles, Interval: cfg.DrawInterval},
	})
	defer hrService.Close()

	// 3. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(hrService, cfg.DefaultGroupSize, cfg.DrawInterval)

	// 4. Set up the Gin router
	r := gin.Default()

	// 5. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 6. Group routes that require tenant identification and apply middleware
	tenantRoutes := r.Group("/")
	tenantRoutes.Use(httpHandler.TenantMiddleware())
	httpHandler.RegisterTenantRoutes(tenantRoutes)

	// 7. Start the background janitor to clean up inactive sessions
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		ticker := time.NewTicker(cfg.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := hrService.CleanUpInactiveSessions(cfg.SessionTTL)
				logger.Infof("Performed cleanup of inactive sessions, dropped %d.", n)
			}
		}
	}()

	// 8. Run the server until interrupted
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	logger.Info("Server stopped")
}
