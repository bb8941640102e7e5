package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/api"
	"github.com/yourusername/mp3-extract-go/api/handlers"
	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/engine"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath = flag.String("config", "", "Config file (default: search ./configs, ~/.mp3-extract)")
	envFile    = flag.String("env-file", ".env", "Environment file to load before reading config")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	eng, err := engine.Open(engine.Options{ConfigPath: *configPath})
	if err != nil {
		return err
	}
	defer eng.Close()

	config := eng.Config
	log := eng.Logger

	log.Info("Starting mp3-extract server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("config", eng.ConfigPath),
		zap.String("failure_policy", string(config.Download.FailurePolicy)),
		zap.Bool("history", config.History.Enabled))

	hub := handlers.NewEventHub(log)
	loop := app.NewEventLoop(eng.Controller.Events(), log, eng.Handlers()...)
	loop.AddHandler(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := loop.Start(ctx); err != nil {
		return err
	}

	router := api.SetupRouter(api.Dependencies{
		Config:     config,
		Controller: eng.Controller,
		Extractor:  eng.Extractor,
		History:    eng.History,
		EventHub:   hub,
		Logger:     log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		return err
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop the running job first so its final events still reach the
	// history and notification handlers
	if err := eng.Controller.Cancel(); err == nil {
		log.Info("Cancelled active job")
	}
	if err := eng.Controller.Wait(shutdownCtx); err != nil {
		log.Warn("Active job did not stop in time", zap.Error(err))
	}
	if err := eng.Controller.Close(); err != nil {
		log.Error("Error closing job controller", zap.Error(err))
	}
	if err := loop.Stop(); err != nil {
		log.Error("Error stopping event loop", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
