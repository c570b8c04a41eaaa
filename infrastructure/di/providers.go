package di

import (
	"context"
	"fmt"
	"time"

	"wmsadmin/application/commands"
	"wmsadmin/application/commands/bus"
	commandhandlers "wmsadmin/application/commands/handlers"
	"wmsadmin/application/ports"
	"wmsadmin/application/queries"
	querybus "wmsadmin/application/queries/bus"
	queryhandlers "wmsadmin/application/queries/handlers"
	"wmsadmin/application/services"
	domainconfig "wmsadmin/domain/config"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/events"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/menus"
	"wmsadmin/infrastructure/messaging"
	"wmsadmin/infrastructure/messaging/eventbridge"
	"wmsadmin/infrastructure/persistence/dynamodb"
	"wmsadmin/infrastructure/persistence/memory"
	"wmsadmin/infrastructure/persistence/seed"
	"wmsadmin/infrastructure/persistence/sqlite"
	"wmsadmin/infrastructure/persistence/tracing"
	"wmsadmin/infrastructure/websocket"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const (
	serviceName = "wmsadmin"

	// treeCacheTTL bounds how long a query result is served from cache.
	// Commits clear the cache sooner.
	treeCacheTTL = 300

	connectionTTL = 2 * time.Hour
	loginWindow   = time.Minute
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// ProvideCodesRules picks the business limits for the environment
func ProvideCodesRules(cfg *config.Config) *domainconfig.CodesRules {
	rules := domainconfig.LoadCodesRules(cfg.Environment)
	rules.LoginLockoutThreshold = cfg.LoginLockoutThreshold
	return rules
}

// ProvideAWSConfig creates AWS configuration. Loading reads the
// environment and shared files only, so local backends pay nothing for it.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// Storage is the set of stores selected by STORAGE_BACKEND.
type Storage struct {
	Codes       ports.CodesRepository
	Lock        ports.CommitLock
	Accounts    ports.AccountRepository
	Connections ports.ConnectionStore
}

// ProvideStorage opens the configured backend and seeds it when SEED_DATA
// is set and the store is empty.
func ProvideStorage(
	ctx context.Context,
	cfg *config.Config,
	rules *domainconfig.CodesRules,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (*Storage, func(), error) {
	accounts, err := seed.Accounts()
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()

	switch cfg.StorageBackend {
	case config.StorageMemory:
		var tree *entities.CodesTree
		if cfg.SeedData {
			tree = seed.Tree(rules, now)
		}
		return &Storage{
			Codes:       memory.NewInMemoryCodesRepository(tree),
			Lock:        memory.NewMutexCommitLock(),
			Accounts:    memory.NewInMemoryAccountRepository(accounts),
			Connections: memory.NewInMemoryConnectionStore(),
		}, func() {}, nil

	case config.StorageSQLite:
		repo, err := sqlite.NewCodesRepository(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.SeedData {
			seeded, err := repo.SeedIfEmpty(ctx, seed.Tree(rules, now))
			if err != nil {
				repo.Close()
				return nil, nil, err
			}
			logger.Info("SQLite store ready", zap.String("path", cfg.SQLitePath), zap.Bool("seeded", seeded))
		}
		cleanup := func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
		return &Storage{
			Codes:       repo,
			Lock:        memory.NewMutexCommitLock(),
			Accounts:    memory.NewInMemoryAccountRepository(accounts),
			Connections: memory.NewInMemoryConnectionStore(),
		}, cleanup, nil

	case config.StorageDynamoDB:
		repo := dynamodb.NewCodesRepository(client, cfg.DynamoDBTable, logger)
		accountRepo := dynamodb.NewAccountRepository(client, cfg.DynamoDBTable)
		if cfg.SeedData {
			seeded, err := repo.SeedIfEmpty(ctx, seed.Tree(rules, now))
			if err != nil {
				return nil, nil, err
			}
			if seeded {
				if err := accountRepo.SeedAccounts(ctx, accounts); err != nil {
					return nil, nil, err
				}
			}
			logger.Info("DynamoDB store ready", zap.String("table", cfg.DynamoDBTable), zap.Bool("seeded", seeded))
		}
		return &Storage{
			Codes:       repo,
			Lock:        dynamodb.NewDistributedCommitLock(client, cfg.DynamoDBTable, cfg.CommitLockTTL, logger),
			Accounts:    accountRepo,
			Connections: dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, connectionTTL),
		}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// ProvideCodesRepository wraps the store with tracing
func ProvideCodesRepository(st *Storage, tracer *observability.Tracer) ports.CodesRepository {
	return tracing.Wrap(st.Codes, tracer)
}

func ProvideCommitLock(st *Storage) ports.CommitLock               { return st.Lock }
func ProvideAccountRepository(st *Storage) ports.AccountRepository { return st.Accounts }
func ProvideConnectionStore(st *Storage) ports.ConnectionStore     { return st.Connections }

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideCollector creates the Prometheus collector, or nil when metrics
// are off.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideMetricsRecorder fans business metrics out to Prometheus and,
// when enabled, CloudWatch. The result is nil when both are off.
func ProvideMetricsRecorder(
	cfg *config.Config,
	collector *observability.Collector,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) ports.MetricsRecorder {
	var recorders []observability.Recorder
	if collector != nil {
		recorders = append(recorders, collector)
	}
	if cfg.EnableCloudWatch {
		namespace := fmt.Sprintf("WMSAdmin/%s", cfg.Environment)
		recorders = append(recorders, observability.NewCloudWatchMetrics(namespace, client, logger))
	}
	r := observability.Recorders(recorders...)
	if r == nil {
		return nil
	}
	return r
}

// ProvideEventBus creates the in-process bus, fronted by EventBridge when
// ENABLE_EVENT_BUS is set.
func ProvideEventBus(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventBus {
	local := messaging.NewLocalEventBus(logger)
	if !cfg.EnableEventBus {
		return local
	}
	return eventbridge.NewEventBridgePublisher(
		client,
		cfg.EventBusName,
		eventbridge.DefaultBreakerConfig(),
		local,
		logger,
	)
}

// ProvideEventPublisher narrows the bus for publish-only consumers
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return &eventPublisherAdapter{eventBus: eventBus}
}

type eventPublisherAdapter struct {
	eventBus ports.EventBus
}

func (a *eventPublisherAdapter) Publish(ctx context.Context, event events.DomainEvent) error {
	return a.eventBus.Publish(ctx, event)
}

func (a *eventPublisherAdapter) PublishBatch(ctx context.Context, events []events.DomainEvent) error {
	return a.eventBus.PublishBatch(ctx, events)
}

// ProvideCache creates the query cache. The dynamodb backend serves many
// instances, so no instance may cache and the result is nil.
func ProvideCache(cfg *config.Config) (ports.Cache, func()) {
	if cfg.StorageBackend == config.StorageDynamoDB {
		return nil, func() {}
	}
	cache := NewInMemoryCache()
	return cache, cache.Close
}

// ProvideMenuSource loads the menus and watches the override file
func ProvideMenuSource(cfg *config.Config, logger *zap.Logger) (*menus.Source, func(), error) {
	src, err := menus.NewSource(cfg.MenuConfigPath, logger)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.IsLambda {
		if err := src.Watch(); err != nil {
			logger.Warn("Menu hot reload disabled", zap.Error(err))
		}
	}
	return src, func() { _ = src.Close() }, nil
}

// ProvideJWTConfig maps configuration onto the token settings
func ProvideJWTConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		AccessExpiry:  cfg.JWTExpiry,
		RefreshExpiry: cfg.RefreshExpiry,
	}
}

// ProvideLoginLimiter limits login attempts per client IP. The dynamodb
// backend counts in the table so the limit holds across instances.
func ProvideLoginLimiter(cfg *config.Config, client *awsdynamodb.Client) auth.RateLimiter {
	if cfg.StorageBackend == config.StorageDynamoDB {
		return auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.LoginRateLimit, loginWindow, "LOGIN")
	}
	return auth.WithPrefix(auth.NewSlidingWindowLimiter(cfg.LoginRateLimit, loginWindow), "login")
}

// ProvideAuditService creates the audit recorder
func ProvideAuditService(publisher ports.EventPublisher, logger *zap.Logger) *services.AuditService {
	return services.NewAuditService(publisher, logger)
}

// ProvideAuthService creates the login service
func ProvideAuthService(
	accounts ports.AccountRepository,
	tokens *auth.JWTGenerator,
	validator *auth.JWTValidator,
	audit *services.AuditService,
	metrics ports.MetricsRecorder,
	rules *domainconfig.CodesRules,
	logger *zap.Logger,
) *services.AuthService {
	return services.NewAuthService(accounts, tokens, validator, audit, metrics, rules.LoginLockoutThreshold, logger)
}

// ProvideMenuService creates the menu filter
func ProvideMenuService(src ports.MenuSource) *services.MenuService {
	return services.NewMenuService(src)
}

// ProvideNotificationService subscribes WebSocket fan-out to the local bus
// when this process pushes notifications itself. With EventBridge on, the
// ws-notify function does it instead and the result is nil.
func ProvideNotificationService(
	cfg *config.Config,
	awsCfg aws.Config,
	connections ports.ConnectionStore,
	eventBus ports.EventBus,
	logger *zap.Logger,
) (*services.NotificationService, error) {
	if cfg.EnableEventBus || cfg.WebSocketEndpoint == "" {
		return nil, nil
	}
	pusher := websocket.NewAPIGatewayPusher(websocket.NewClient(awsCfg, cfg.WebSocketEndpoint))
	svc := services.NewNotificationService(connections, pusher, logger)
	if err := eventBus.Subscribe(events.TypeBatchCommitted, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideBatchSaveHandler creates the batch commit handler
func ProvideBatchSaveHandler(
	repo ports.CodesRepository,
	lock ports.CommitLock,
	eventBus ports.EventBus,
	cache ports.Cache,
	metrics ports.MetricsRecorder,
	rules *domainconfig.CodesRules,
	logger *zap.Logger,
) (*commandhandlers.BatchSaveHandler, func()) {
	h := commandhandlers.NewBatchSaveHandler(repo, lock, eventBus, cache, metrics, rules, logger)
	return h, h.Wait
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(batch *commandhandlers.BatchSaveHandler, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		bus.ValidationMiddleware(),
	)
	if err := commandBus.Register(commands.BatchSaveCommand{}, batch); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers. Results
// are cached only when a cache is configured.
func ProvideQueryBus(
	repo ports.CodesRepository,
	cache ports.Cache,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var middlewares []querybus.Middleware
	if metrics != nil {
		middlewares = append(middlewares, querybus.NewMetricsMiddleware(metrics))
	}
	if cache != nil {
		middlewares = append(middlewares, querybus.NewCachingMiddleware(cache, treeCacheTTL))
	}
	queryBus := querybus.NewQueryBus(middlewares...)

	if err := queryBus.Register(queries.GetCodesTreeQuery{}, queryhandlers.NewGetCodesTreeHandler(repo, logger)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.SearchCodesQuery{}, queryhandlers.NewSearchCodesHandler(repo, logger)); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// zapLoggerAdapter adapts zap.Logger to the command bus Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	return zapFields
}
