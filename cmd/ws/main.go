package main

import (
	"net/http"
	"os"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/config"
	"go-jackpot/internal/lib/logger/handler/slogpretty"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/ws/handler"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting ws server...", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	hub := handler.NewHub(log, cfg.Events.Channel)

	hub.RunServer()

	http.HandleFunc("/ws", hub.HandleConnection)

	log.Info("Server started",
		slog.String("address", cfg.WSServer.Address),
		slog.String("default_channel", cfg.Events.Channel))

	srv := &http.Server{
		Addr:         cfg.WSServer.Address,
		ReadTimeout:  cfg.WSServer.Timeout,
		WriteTimeout: cfg.WSServer.Timeout,
		IdleTimeout:  cfg.WSServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("Server error", sl.Err(err))
	}

	log.Error("WS server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
