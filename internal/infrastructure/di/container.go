package di

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"exchangeengine/internal/adapters/inbound/http/controllers"
	httpRouter "exchangeengine/internal/adapters/inbound/http/router"
	"exchangeengine/internal/adapters/outbound/catalog"
	"exchangeengine/internal/adapters/outbound/docs"
	"exchangeengine/internal/adapters/outbound/events"
	"exchangeengine/internal/adapters/outbound/exchange/auth"
	"exchangeengine/internal/adapters/outbound/exchange/channelmanager"
	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/adapters/outbound/exchange/whatsapp"
	"exchangeengine/internal/adapters/outbound/idempotency"
	"exchangeengine/internal/adapters/outbound/identity"
	"exchangeengine/internal/adapters/outbound/persistence/gormstore"
	"exchangeengine/internal/adapters/outbound/persistence/postgresql"
	"exchangeengine/internal/adapters/outbound/persistence/postgresql/recovery"
	postgresqlshared "exchangeengine/internal/adapters/outbound/persistence/postgresql/shared"
	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/handlers"
	"exchangeengine/internal/application/listeners"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/application/use_cases"
	"exchangeengine/internal/domain/policies"
	"exchangeengine/internal/infrastructure/config"
	"exchangeengine/internal/infrastructure/httpserver"
	"exchangeengine/internal/infrastructure/worker"
)

const (
	sendMessagesMaxBatch     = 50
	pushReservationsMaxBatch = 10
	pullReservationsMaxBatch = 1

	recoveryPoolMaxOpenConns = 2
)

type Container struct {
	Database                     *gorm.DB
	RecoveryDatabase             *sql.DB
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	RunTaskUseCase               portsin.RunTaskUseCase
	Tasks                        *use_cases.TaskRegistry
	Worker                       *worker.Worker

	closers []func() error
}

// Close releases every connection the container opened, last opened first.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stderrors.Join(errs...)
}

// BuildMigrator wires only what `migrate` needs: no pools are opened.
func BuildMigrator(cfg config.Config, logger *slog.Logger) portsin.InitializePersistenceUseCase {
	gateway := postgresql.NewPersistenceBootstrapGateway(cfg.DatabaseURL, cfg.DatabaseTarget, cfg.MigrationsPath, logger)
	return use_cases.NewInitializePersistenceUseCase(gateway, nil, nil)
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *Container, err error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	container := &Container{}
	defer func() {
		if err != nil {
			_ = container.Close()
		}
	}()

	database, err := gormstore.Open(ctx, cfg.DatabaseURL, gormstore.Options{})
	if err != nil {
		return nil, fmt.Errorf("open primary database: %w", err)
	}
	container.Database = database
	container.closers = append(container.closers, func() error {
		sqlDB, dbErr := database.DB()
		if dbErr != nil {
			return dbErr
		}
		return sqlDB.Close()
	})

	recoveryDB, err := postgresqlshared.NewDatabasePool(ctx, cfg.DatabaseURL, postgresqlshared.PoolOptions{
		MaxOpenConns: recoveryPoolMaxOpenConns,
		MaxIdleConns: recoveryPoolMaxOpenConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open recovery database pool: %w", err)
	}
	container.RecoveryDatabase = recoveryDB
	container.closers = append(container.closers, recoveryDB.Close)

	publisher, err := buildOutcomePublisher(cfg, logger, container)
	if err != nil {
		return nil, err
	}
	deduplicator, err := buildWebhookDeduplicator(ctx, cfg, logger, container)
	if err != nil {
		return nil, err
	}

	clock := use_cases.NewSystemClock()
	ids := identity.NewUUIDGenerator()
	retry := policies.RetryPolicy{
		InitialBackoff:      cfg.RetryInitialBackoff,
		MaxBackoff:          cfg.RetryMaxBackoff,
		CatastrophicBackoff: cfg.CatastrophicBackoff,
	}

	unitOfWork := gormstore.NewUnitOfWork(database)
	configRepository := gormstore.NewChannelConfigRepository(database, logger)
	endpointRepository := gormstore.NewEndpointRepository(database, logger)
	queueItemRepository := gormstore.NewQueueItemRepository(database, logger)
	messageRepository := gormstore.NewOutboundMessageRepository(database, logger)
	reservationRepository := gormstore.NewReservationRepository(database, logger)
	auditRepository := gormstore.NewWebhookAuditRepository(database, logger)
	queueOpsReadModel := gormstore.NewQueueOpsReadModel(database, cfg.QueueStaleLockTTL, logger)
	recoveryRepository := recovery.NewRepository(recoveryDB)

	persistenceGateway := postgresql.NewPersistenceBootstrapGateway(
		cfg.DatabaseURL,
		cfg.DatabaseTarget,
		cfg.MigrationsPath,
		logger,
	)
	endpointCatalog := catalog.NewFileEndpointCatalog(cfg.EndpointCatalogPath)
	container.InitializePersistenceUseCase = use_cases.NewInitializePersistenceUseCase(
		persistenceGateway,
		endpointCatalog,
		endpointRepository,
	)

	outbox := use_cases.NewOutbox(endpointRepository, queueItemRepository, ids, clock, cfg.QueueMaxAttempts)
	reservationListener := listeners.NewReservationSyncListener(outbox, logger)
	reservationWriter := handlers.NewReservationWriter(reservationRepository, reservationListener)
	upsertResolver := handlers.NewReservationUpsertResolver(unitOfWork, reservationRepository, reservationWriter, ids)

	httpTransport := transport.New(transport.Config{Timeout: cfg.ExchangeHTTPTimeout})
	tokenCache := auth.NewTokenCache(auth.TokenCacheConfig{
		Fetcher: channelmanager.NewTokenFetcher(httpTransport, nil),
		Store:   configRepository,
		Margin:  cfg.TokenExpiryMargin,
		Logger:  logger,
	})
	clients, appErr := use_cases.NewClientRegistry(
		whatsapp.NewClient(httpTransport),
		channelmanager.NewClient(httpTransport, tokenCache),
	)
	if appErr != nil {
		return nil, appErr
	}

	taskRegistry, appErr := use_cases.NewTaskRegistry(clients, buildTasks(taskDependencies{
		database:     database,
		staleLockTTL: cfg.QueueStaleLockTTL,
		retry:        retry,
		items:        queueItemRepository,
		messages:     messageRepository,
		reservations: reservationRepository,
		writer:       reservationWriter,
		resolver:     upsertResolver,
		logger:       logger,
	})...)
	if appErr != nil {
		return nil, appErr
	}
	container.Tasks = taskRegistry

	container.RunTaskUseCase = use_cases.NewRunTaskUseCase(
		taskRegistry,
		use_cases.NewBatchProcessor(clients, logger),
		unitOfWork,
		recoveryRepository,
		publisher,
		retry,
		clock,
		logger,
	)

	workerTasks, err := resolveWorkerTasks(cfg.WorkerTasks, taskRegistry)
	if err != nil {
		return nil, err
	}
	container.Worker = worker.New(worker.Config{
		Tasks:        workerTasks,
		PollInterval: cfg.WorkerPollInterval,
		WorkerID:     cfg.WorkerID,
	}, container.RunTaskUseCase, logger)

	healthUseCase := use_cases.NewGetHealthUseCase(persistenceGateway)
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath))
	handleWebhookUseCase := use_cases.NewHandleWebhookUseCase(
		unitOfWork,
		configRepository,
		upsertResolver,
		auditRepository,
		deduplicator,
		ids,
		clock,
		logger,
	)
	enqueueMessageUseCase := use_cases.NewEnqueueMessageUseCase(
		unitOfWork,
		configRepository,
		messageRepository,
		outbox,
		ids,
		clock,
	)
	saveReservationUseCase := use_cases.NewSaveReservationUseCase(
		unitOfWork,
		configRepository,
		reservationRepository,
		reservationWriter,
		ids,
		clock,
	)
	requestPullUseCase := use_cases.NewRequestReservationPullUseCase(unitOfWork, configRepository, outbox, clock)
	overviewUseCase := use_cases.NewGetQueueOverviewUseCase(queueOpsReadModel)
	requeueUseCase := use_cases.NewRequeueQueueItemUseCase(unitOfWork, queueItemRepository)

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:       controllers.NewHealthController(healthUseCase, logger),
		SwaggerController:      controllers.NewSwaggerController(openAPIUseCase, logger),
		WebhookController:      controllers.NewWebhookController(handleWebhookUseCase, logger),
		MessagesController:     controllers.NewMessagesController(enqueueMessageUseCase, logger),
		ReservationsController: controllers.NewReservationsController(saveReservationUseCase, requestPullUseCase, logger),
		QueueController: controllers.NewQueueController(
			overviewUseCase,
			requeueUseCase,
			container.RunTaskUseCase,
			cfg.WorkerID,
			logger,
		),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	container.Server = httpserver.New(cfg.Address(), router, logger)

	return container, nil
}

type taskDependencies struct {
	database     *gorm.DB
	staleLockTTL time.Duration
	retry        policies.RetryPolicy
	items        portsout.QueueItemRepository
	messages     portsout.OutboundMessageRepository
	reservations portsout.ReservationRepository
	writer       *handlers.ReservationWriter
	resolver     *handlers.ReservationUpsertResolver
	logger       *slog.Logger
}

func buildTasks(deps taskDependencies) []use_cases.Task {
	queue := func(taskName string) portsout.QueueProvider {
		return gormstore.NewQueueProvider(deps.database, taskName, deps.staleLockTTL, deps.logger)
	}

	return []use_cases.Task{
		{
			Name:         dto.TaskSendMessages,
			MaxBatchSize: sendMessagesMaxBatch,
			Mode:         synccontext.ModePush,
			Provider:     dto.ProviderWhatsApp,
			Queue:        queue(dto.TaskSendMessages),
			Mapping:      whatsapp.NewSendMessagesMapping(deps.logger),
			Handler:      handlers.NewSendMessagesHandler(deps.items, deps.messages, deps.retry, deps.logger),
		},
		{
			Name:         dto.TaskPushReservations,
			MaxBatchSize: pushReservationsMaxBatch,
			Mode:         synccontext.ModePush,
			Provider:     dto.ProviderChannelManager,
			Queue:        queue(dto.TaskPushReservations),
			Mapping:      channelmanager.NewPushReservationsMapping(deps.logger),
			Handler: handlers.NewReservationPushHandler(
				deps.items,
				deps.reservations,
				deps.writer,
				deps.retry,
				deps.logger,
			),
		},
		{
			Name:         dto.TaskPullReservations,
			MaxBatchSize: pullReservationsMaxBatch,
			Mode:         synccontext.ModePull,
			Provider:     dto.ProviderChannelManager,
			Queue:        queue(dto.TaskPullReservations),
			Mapping:      channelmanager.NewPullReservationsMapping(deps.logger),
			Handler:      handlers.NewReservationPullHandler(deps.items, deps.resolver, deps.retry, deps.logger),
		},
	}
}

// resolveWorkerTasks defaults to every registered task and rejects names the
// registry does not know.
func resolveWorkerTasks(requested []string, registry *use_cases.TaskRegistry) ([]string, error) {
	if len(requested) == 0 {
		return registry.Names(), nil
	}
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		task, appErr := registry.Resolve(name)
		if appErr != nil {
			return nil, fmt.Errorf("worker task %q: %w", strings.TrimSpace(name), appErr)
		}
		out = append(out, task.Name)
	}
	return out, nil
}

func buildOutcomePublisher(cfg config.Config, logger *slog.Logger, container *Container) (portsout.OutcomePublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("outcome events disabled", "reason", "KAFKA_BROKERS is empty")
		return events.NoopPublisher{}, nil
	}
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOutcomeTopic, logger)
	container.closers = append(container.closers, publisher.Close)
	logger.Info("outcome events enabled", "topic", cfg.KafkaOutcomeTopic, "brokers", cfg.KafkaBrokers)
	return publisher, nil
}

func buildWebhookDeduplicator(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	container *Container,
) (portsout.WebhookDeduplicator, error) {
	if cfg.RedisURL == "" {
		logger.Info("webhook dedupe disabled", "reason", "REDIS_URL is empty")
		return idempotency.NoopDeduplicator{}, nil
	}
	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	container.closers = append(container.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return idempotency.NewRedisDeduplicator(client, cfg.WebhookDedupTTL), nil
}
