// Package server initializes and runs the main application server.
// It opens the database and Redis connections, runs migrations, wires the
// service layer and the realtime hub, and starts the HTTP server and the
// background task worker with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"devfolio/internal/logging"
	"devfolio/internal/server/auth"
	"devfolio/internal/server/blob"
	"devfolio/internal/server/config"
	"devfolio/internal/server/httpapi"
	"devfolio/internal/server/realtime"
	"devfolio/internal/server/repositories/repomanager"
	"devfolio/internal/server/services"
	"devfolio/internal/server/tasks"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger

	db          *sql.DB
	redisClient *redis.Client
	asynqClient *asynq.Client

	hub    *realtime.Hub
	worker *tasks.Worker
	http   *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})

	store := blob.NewStore(cfg.S3Bucket, cfg.S3Region, cfg.S3BaseEndpoint, cfg.S3RootUser, cfg.S3RootPassword)
	enqueuer := tasks.NewEnqueuer(asynqClient)
	worker := tasks.NewWorker(cfg.RedisAddr, store, logger)

	// Federated login stays disabled when the OIDC provider is unreachable
	// or unconfigured; everything else still works.
	var verifier auth.IdentityVerifier
	if cfg.OIDCClientID != "" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCProvider, cfg.OIDCIssuerURL, cfg.OIDCClientID)
		if err != nil {
			logger.Warn(ctx, "oidc verifier init failed, federated login disabled", "error", err.Error())
		} else {
			verifier = v
		}
	}

	userService := services.NewUserService(db, m, verifier, cfg)
	portfolioService := services.NewPortfolioService(db, m)
	connectionService := services.NewConnectionService(db, m)
	chatService := services.NewChatService(db, m)
	roadmapService := services.NewRoadmapService(db, m)
	fileService := services.NewFileService(db, m, store, enqueuer, logger)

	hub := realtime.NewHub()
	presence := realtime.NewPresenceRegistry(redisClient, cfg.PresenceTTL)
	socketHandler := realtime.NewSocketHandler(hub, presence, chatService, connectionService, []byte(cfg.SecretKey), logger)

	httpServer := httpapi.NewServer(cfg.EndpointAddrHTTP, []byte(cfg.SecretKey), httpapi.Services{
		Users:       userService,
		Portfolio:   portfolioService,
		Connections: connectionService,
		Chat:        chatService,
		Roadmaps:    roadmapService,
		Files:       fileService,
	}, socketHandler.Handle, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		asynqClient: asynqClient,
		hub:         hub,
		worker:      worker,
		http:        httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startWorker(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.worker.Start(); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWorker(ctx, cancelFunc)
	}()

	<-ctx.Done()
	app.shutdown()

	wg.Wait()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.logger.Info(ctx, "Shutting down...")

	if err := app.http.Shutdown(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	app.hub.Close()
	app.worker.Shutdown()

	if err := app.asynqClient.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.redisClient.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
