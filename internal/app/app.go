package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/db"
	"instagram-dm-automation-go/internal/dispatcher"
	"instagram-dm-automation-go/internal/executor"
	"instagram-dm-automation-go/internal/handlers"
	"instagram-dm-automation-go/internal/instagram"
	"instagram-dm-automation-go/internal/metrics"
	"instagram-dm-automation-go/internal/rules"
	"instagram-dm-automation-go/internal/scheduler"
	"instagram-dm-automation-go/internal/server"
	"instagram-dm-automation-go/internal/store"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.Info("Starting Instagram DM Automation Service")

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()
	ig := instagram.NewClient(&cfg.Instagram)
	st := store.New(dbConn)
	catalog := rules.NewCatalog(dbConn)
	limiter := rules.NewLimiter(dbConn)
	exec := executor.New(dbConn, st, ig, cfg.Instagram.SendTimeout)
	disp := dispatcher.New(dbConn, st, catalog, limiter, exec, m)

	sched := scheduler.NewScheduler(&cfg.Scheduler, dbConn, ig, m)

	h := handlers.NewHandlers(dbConn, disp, st, ig, sched, m, &cfg.Instagram)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
