package rest

import (
	"context"
	"net/http"
	"time"

	"wmsadmin/application/commands/bus"
	querybus "wmsadmin/application/queries/bus"
	"wmsadmin/application/services"
	"wmsadmin/infrastructure/di"
	"wmsadmin/interfaces/http/rest/handlers"
	"wmsadmin/interfaces/http/rest/middleware"
	v1 "wmsadmin/interfaces/http/rest/v1"
	"wmsadmin/pkg/auth"
	apperrors "wmsadmin/pkg/errors"
	"wmsadmin/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CodesPermission is the module grant needed for the code maintenance routes.
const CodesPermission = "basic-operations"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Auth         *services.AuthService
	Audit        *services.AuditService
	Menus        *services.MenuService
	JWTValidator *auth.JWTValidator
	LoginLimiter auth.RateLimiter
	Collector    *observability.Collector
	Tracer       *observability.Tracer
	Logger       *zap.Logger

	AllowedOrigins []string
	Debug          bool

	// Ready reports whether the backing store answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	deps Deps
}

// NewRouter creates a new router instance
func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Router{deps: deps}
}

// NewRouterFromContainer wires the router from a built container.
func NewRouterFromContainer(c *di.Container) *Router {
	repo := c.CodesRepo
	return NewRouter(Deps{
		CommandBus:     c.CommandBus,
		QueryBus:       c.QueryBus,
		Auth:           c.Auth,
		Audit:          c.Audit,
		Menus:          c.Menus,
		JWTValidator:   c.JWTValidator,
		LoginLimiter:   c.LoginLimiter,
		Collector:      c.Collector,
		Tracer:         c.Tracer,
		Logger:         c.Logger,
		AllowedOrigins: c.Config.CORSAllowedOrigins,
		Debug:          c.Config.IsDevelopment(),
		Ready: func(ctx context.Context) error {
			_, err := repo.LoadTree(ctx)
			return err
		},
	})
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	d := rt.deps
	errs := apperrors.NewErrorHandler(d.Logger, d.Debug)

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(d.Logger))
	router.Use(middleware.ClientInfo)
	if d.Tracer.Enabled() {
		router.Use(d.Tracer.Middleware)
	}
	if d.Collector != nil {
		router.Use(d.Collector.Middleware)
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if d.Collector != nil {
		router.Method(http.MethodGet, "/metrics", d.Collector.Handler())
	}

	authn := middleware.Authenticate(d.JWTValidator, d.Logger)

	authHandler := handlers.NewAuthHandler(d.Auth, errs, d.Logger)
	codesHandler := handlers.NewCodesHandler(d.CommandBus, d.QueryBus, errs, d.Logger)
	menuHandler := handlers.NewMenuHandler(d.Menus, errs)
	auditHandler := handlers.NewAuditHandler(d.Audit, errs)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(d.LoginLimiter, d.Logger)).Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authn, middleware.TrackUser)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn, middleware.TrackUser)
			r.Get("/menus", menuHandler.List)
			r.Get("/menus/lookup", menuHandler.Lookup)
		})

		r.Route("/codes", func(r chi.Router) {
			r.Use(authn, middleware.TrackUser, middleware.RequirePermission(CodesPermission))
			r.Get("/tree", codesHandler.GetTree)
			r.Get("/search", codesHandler.Search)
			r.Post("/batch", codesHandler.BatchSave)
		})

		r.With(middleware.OptionalAuthenticate(d.JWTValidator, d.Logger), middleware.TrackUser).
			Post("/audit/log", auditHandler.Log)
	})

	legacy := v1.NewRouter(codesHandler, func(next http.Handler) http.Handler {
		return authn(middleware.TrackUser(middleware.RequirePermission(CodesPermission)(next)))
	})
	router.Handle(v1.Prefix+"/*", legacy)

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports 503 while the store cannot load the tree
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.deps.Ready(ctx); err != nil {
			rt.deps.Logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
