//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"wmsadmin/application/ports"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/menus"
	"wmsadmin/pkg/auth"

	"github.com/google/wire"
)

// StorageSet selects the stores for the configured backend
var StorageSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideStorage,
	ProvideCodesRepository,
	ProvideCommitLock,
	ProvideAccountRepository,
	ProvideConnectionStore,
)

// ObservabilitySet provides tracing and metrics
var ObservabilitySet = wire.NewSet(
	ProvideCloudWatchClient,
	ProvideTracer,
	ProvideCollector,
	ProvideMetricsRecorder,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCodesRules,
	StorageSet,
	ObservabilitySet,
	ProvideEventBridgeClient,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideCache,
	ProvideMenuSource,
	wire.Bind(new(ports.MenuSource), new(*menus.Source)),
	ProvideJWTConfig,
	auth.NewJWTGenerator,
	auth.NewJWTValidator,
	ProvideLoginLimiter,
	ProvideAuditService,
	ProvideAuthService,
	ProvideMenuService,
	ProvideNotificationService,
	ProvideBatchSaveHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup
// function closes stores and waits for background publishes.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
