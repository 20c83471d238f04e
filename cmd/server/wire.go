//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
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
	chatsessionrepo "invision-server/internal/infrastructure/repository/chatsession"
	organizationrepo "invision-server/internal/infrastructure/repository/organization"
	workflowrepo "invision-server/internal/infrastructure/repository/workflow"
	"invision-server/internal/interfaces/httpserver"
	"invision-server/internal/interfaces/httpserver/handlers"
)

var relaySet = wire.NewSet(
	chatsessionrepo.NewRepository,
	wire.Bind(new(chatsession.Repository), new(*chatsessionrepo.Repository)),
	workflowrepo.NewRepository,
	wire.Bind(new(workflow.Repository), new(*workflowrepo.Repository)),
	organizationrepo.NewRepository,
	wire.Bind(new(organization.Repository), new(*organizationrepo.Repository)),
	workflow.NewService,
	wire.Bind(new(chatsession.WorkflowResolver), new(*workflow.Service)),
	chatsession.NewService,
	organization.NewService,
	connectorbroker.NewClient,
	wire.Bind(new(connector.Client), new(*connectorbroker.Client)),
	connector.NewService,
	flowengine.NewClient,
	handlers.NewProvider,
)

// BuildApplication assembles the relay service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		relaySet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}
