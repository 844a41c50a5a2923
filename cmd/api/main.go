package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/clients/ledger"
	"go-jackpot/internal/clients/oracle"
	"go-jackpot/internal/clients/registry"
	"go-jackpot/internal/config"
	"go-jackpot/internal/draw"
	"go-jackpot/internal/http-server/handlers/claim"
	"go-jackpot/internal/http-server/handlers/draws"
	"go-jackpot/internal/http-server/handlers/event"
	"go-jackpot/internal/http-server/handlers/funds"
	"go-jackpot/internal/http-server/handlers/job"
	"go-jackpot/internal/http-server/handlers/mysql"
	"go-jackpot/internal/http-server/handlers/pool"
	"go-jackpot/internal/http-server/handlers/purge"
	"go-jackpot/internal/http-server/handlers/randomness"
	mwLogger "go-jackpot/internal/http-server/middleware/logger"
	"go-jackpot/internal/lib/logger/handler/slogpretty"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/prize"
	"go-jackpot/internal/repository"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting settlement server...", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := sql.Open("mysql", cfg.Storage.DSN)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)
	auditRepo := repository.NewAuditRepository(*handler)

	events, err := setupEvents(cfg, log)
	if err != nil {
		log.Error("Failed to init event pusher", sl.Err(err))
		os.Exit(1)
	}

	job.Queue = make(job.JobQueue, 64)
	job.NewWorkerPool(cfg.Settlement.Workers, job.Queue).Start()

	registryClient := registry.New(log, cfg.Registry.BaseURL, cfg.Registry.Timeout)
	oracleClient := oracle.New(log, cfg.Oracle.BaseURL, cfg.Oracle.CallbackURL, cfg.Oracle.Timeout)
	ledgerClient := ledger.New(log, cfg.Ledger.BaseURL, cfg.Ledger.ComponentKey, cfg.Ledger.Timeout)

	drawCoord := draw.New(
		log,
		draw.Keys{
			PrizeKey:    cfg.Settlement.PrizeKey,
			OracleKey:   cfg.Oracle.ComponentKey,
			OperatorKey: cfg.Operator.ComponentKey,
			SelfKey:     cfg.Settlement.DrawKey,
		},
		registryClient,
		oracleClient,
		events,
		auditRepo,
		cfg.Settlement.PurgeDelay)

	prizeCoord := prize.New(
		log,
		prize.Keys{
			LedgerKey:   cfg.Ledger.ComponentKey,
			DrawKey:     cfg.Settlement.DrawKey,
			OperatorKey: cfg.Operator.ComponentKey,
			SelfKey:     cfg.Settlement.PrizeKey,
		},
		drawCoord,
		ledgerClient,
		[]prize.PurgePeer{registryClient, ledgerClient},
		events,
		auditRepo,
		cfg.Settlement.PrizeAmount)

	drawCoord.SetWinnerSink(prizeCoord)

	deposit := funds.NewDeposit(log, prizeCoord)
	callback := randomness.NewCallback(log, drawCoord)
	claimHandler := claim.NewClaim(log, prizeCoord)
	purgeHandler := purge.NewPurge(log, drawCoord)
	drawsHandler := draws.NewDraws(log, drawCoord, auditRepo)
	poolHandler := pool.NewPool(log, ledgerClient)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/api/funds", deposit.New())
	router.Post("/api/oracle/callback", callback.New())
	router.Post("/api/draws/{drawID}/claim", claimHandler.New())
	router.Post("/api/draws/{drawID}/claim/reset", claimHandler.Reset())
	router.Post("/api/draws/{drawID}/purge", purgeHandler.Open())
	router.Post("/api/draws/purge", purgeHandler.Batch())
	router.Get("/api/draws/{drawID}/winner", drawsHandler.Winner())
	router.Get("/api/draws/{drawID}/events", drawsHandler.Events())
	router.Get("/api/pool/balance", poolHandler.Balance())
	router.Handle("/metrics", promhttp.Handler())

	log.Info("Server started", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("Server failed", sl.Err(err))
	}

	log.Error("Server stopped")
}

func setupEvents(cfg *config.Config, log *slog.Logger) (event.Pusher, error) {
	if cfg.Events.Driver == "pusher" {
		client := &pusher.Client{
			AppID:   cfg.Events.Pusher.AppID,
			Key:     cfg.Events.Pusher.Key,
			Secret:  cfg.Events.Pusher.Secret,
			Cluster: cfg.Events.Pusher.Cluster,
		}

		return event.NewChannelsEvent(log, client), nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Events.HubURL, nil)
	if err != nil {
		return nil, err
	}

	return event.NewHubEvent(log, conn), nil
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
