package di

import (
	"wmsadmin/application/commands/bus"
	commandhandlers "wmsadmin/application/commands/handlers"
	"wmsadmin/application/ports"
	querybus "wmsadmin/application/queries/bus"
	"wmsadmin/application/services"
	"wmsadmin/infrastructure/config"
	"wmsadmin/infrastructure/menus"
	"wmsadmin/pkg/auth"
	"wmsadmin/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	CodesRepo   ports.CodesRepository
	Accounts    ports.AccountRepository
	Connections ports.ConnectionStore
	EventBus    ports.EventBus
	Cache       ports.Cache

	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	BatchSave  *commandhandlers.BatchSaveHandler

	Auth          *services.AuthService
	Audit         *services.AuditService
	Menus         *services.MenuService
	MenuSource    *menus.Source
	Notifications *services.NotificationService

	JWTValidator *auth.JWTValidator
	LoginLimiter auth.RateLimiter

	Collector *observability.Collector
	Recorder  ports.MetricsRecorder
	Tracer    *observability.Tracer
}
