package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/hq/internal/api/v1"
	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/config"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/notify"
	"github.com/gosuda/hq/internal/server/middleware"
	"github.com/gosuda/hq/internal/store/postgres"
	redisstore "github.com/gosuda/hq/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	hub        *ws.Hub
}

// New creates a Server with all routes wired. ctx bounds background work
// started by middleware such as the rate limiter sweeps.
// webAssets may be nil; when provided, the dashboard SPA is served on all
// unmatched routes.
func New(
	ctx context.Context,
	cfg *config.Config,
	store *postgres.Store,
	pubsub *redisstore.PubSub,
	authSvc *auth.Service,
	notifier *notify.Notifier,
	webAssets fs.FS,
) *Server {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub, domain.InvestorBoard.Name, domain.MissionBoard.Name)

	s := &Server{
		router: router,
		hub:    hub,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	deps := v1.BoardDeps{
		Events:       hub,
		Notifier:     notifier,
		WriteTimeout: cfg.Board.WriteTimeout,
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated auth routes, limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

			authConfig := huma.DefaultConfig("HQ Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
			authConfig.OpenAPIPath = "/auth/openapi"
			authConfig.DocsPath = ""
			authConfig.SchemasPath = ""
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, store, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RequireTenant())
			r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
			r.Use(middleware.RequireWriter())

			apiConfig := huma.DefaultConfig("HQ API", "1.0.0")
			apiConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, deps)
		})
	})

	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.AuthWebSocket(cfg.JWT.Secret))
		r.Use(middleware.RequireTenant())
		registerWSRoutes(r, hub)
	})

	router.Get("/healthz", healthz(map[string]pinger{
		"postgres": store,
		"redis":    pubsub,
	}))

	// Must be registered last so API and WS routes take priority.
	if webAssets != nil {
		router.NotFound(spaFileServer(webAssets).ServeHTTP)
		log.Info().Msg("embedded dashboard enabled")
	}

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
