package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"invision-server/internal/config"
	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/auth"
	"invision-server/internal/infrastructure/connectorbroker"
	"invision-server/internal/infrastructure/database"
	"invision-server/internal/infrastructure/flowengine"
	"invision-server/internal/infrastructure/logger"
	"invision-server/internal/infrastructure/observability"
	chatsessionrepo "invision-server/internal/infrastructure/repository/chatsession"
	organizationrepo "invision-server/internal/infrastructure/repository/organization"
	workflowrepo "invision-server/internal/infrastructure/repository/workflow"
	"invision-server/internal/interfaces/httpserver"
	"invision-server/internal/interfaces/httpserver/handlers"
)

// @title InVision Server
// @version 1.0
// @description Streaming chat relay over an external flow-execution engine, with workflow configuration and connector state.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	sessionRepository := chatsessionrepo.NewRepository(db)
	workflowRepository := workflowrepo.NewRepository(db)
	organizationRepository := organizationrepo.NewRepository(db)

	workflowService := workflow.NewService(workflowRepository)
	sessionService := chatsession.NewService(sessionRepository, workflowService)
	organizationService := organization.NewService(organizationRepository)

	brokerClient := connectorbroker.NewClient(cfg, log)
	connectorService := connector.NewService(brokerClient)

	engineClient := flowengine.NewClient(cfg, log)

	handlerProvider := handlers.NewProvider(
		sessionService,
		workflowService,
		organizationService,
		connectorService,
		engineClient,
		log,
	)

	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
