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

	"LifeCoach/internal/coach"
	"LifeCoach/internal/config"
	"LifeCoach/internal/server"
	"LifeCoach/internal/session"
	"LifeCoach/internal/telemetry"
	"LifeCoach/internal/upstream"
)

func main() {
	cfg := config.MustLoad()

	logger, err := telemetry.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	_, _, cleanup, err := telemetry.InitTelemetry(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if cfg.Upstream.APIKey == "" {
		logger.Warn("ARK_API_KEY is not set, upstream calls will be rejected")
	}

	client := upstream.NewClient(cfg.Upstream, logger)
	responder := coach.NewResponder(client, cfg.Retry, logger)

	store := session.New()
	defer store.Close()

	lifeCoach := coach.New(responder, store, cfg.Coach, logger)
	router := server.New(lifeCoach, logger, cfg.StaticDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("lifecoach listening", "port", cfg.Port, "env", cfg.Env, "model", cfg.Upstream.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	sig := <-stop
	logger.Info("stopping application", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
