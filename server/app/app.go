package app

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/api/rest/server"
	"github.com/tinycd/tinycd/server/metrics"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/services/configload"
	"github.com/tinycd/tinycd/server/services/event"
	"github.com/tinycd/tinycd/server/services/executor"
	"github.com/tinycd/tinycd/server/services/pipeline"
	"github.com/tinycd/tinycd/server/services/ratelimit"
	"github.com/tinycd/tinycd/server/services/signature"
	"github.com/tinycd/tinycd/server/store"
	"github.com/tinycd/tinycd/server/store/joblogs"
	"github.com/tinycd/tinycd/server/store/jobs"
	"github.com/tinycd/tinycd/server/store/migrations"
)

type Server struct {
	APIServer       *server.HTTPServer
	ConfigService   services.ConfigService
	ExecutorService services.ExecutorService
	JobStore        store.JobStore
	LogFactory      logger.LogFactory
}

// New wires up a fully configured server. The returned cleanup function
// closes the database and must be called on shutdown.
func New(ctx context.Context, config *ServerConfig) (*Server, func(), error) {
	logRegistry, err := logger.NewLogRegistry(config.LogLevels)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing log levels: %w", err)
	}
	logFactory := logger.MakeLogrusLogFactoryStdOut(logRegistry)

	db, dbCleanup, err := store.NewDatabase(ctx, config.DatabaseConfig, migrations.NewServerMigrateRunner(logFactory))
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing database: %w", err)
	}
	jobStore := jobs.NewStore(db, logFactory)
	logStore := joblogs.NewStore(db, logFactory)

	configService, err := configload.NewConfigService(config.ProjectConfigPath, logFactory)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("error loading project configuration: %w", err)
	}

	clk := clock.New()
	serverMetrics := metrics.New()
	eventService := event.NewEventService(logFactory)
	signatureService := signature.NewSignatureService(logFactory)
	rateLimitService := ratelimit.NewRateLimitService(clk, logFactory)
	pipelineService := pipeline.NewPipelineService(logStore, eventService, serverMetrics, clk, logFactory)
	executorService := executor.NewExecutorService(jobStore, pipelineService, eventService, serverMetrics, clk, logFactory)

	router := server.NewAPIRouter(
		server.NewRootAPI(configService, jobStore, clk, logFactory),
		server.NewWebhookAPI(
			config.WebhookConfig,
			configService,
			signatureService,
			rateLimitService,
			eventService,
			executorService,
			jobStore,
			serverMetrics,
			clk,
			logFactory,
		),
		server.NewJobAPI(jobStore, logStore, logFactory),
		server.NewProjectAPI(configService, jobStore, logFactory),
		server.NewStatsAPI(configService, jobStore, clk, logFactory),
		server.NewConfigAPI(configService, executorService, logFactory),
		server.NewStreamAPI(eventService, logFactory),
		serverMetrics,
		logFactory,
	)
	apiServer := server.NewHTTPServer(router, config.APIConfig, logFactory("HTTPServer"))

	app := &Server{
		APIServer:       apiServer,
		ConfigService:   configService,
		ExecutorService: executorService,
		JobStore:        jobStore,
		LogFactory:      logFactory,
	}
	return app, dbCleanup, nil
}
