// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts them on a chi router and runs the HTTP server.
//
// ROUTES:
//
//	GET    /api/health                          health report
//	POST   /api/v1/auth/google                  Google ID token → session token
//	GET    /api/v1/auth/google/login            browser login (when configured)
//	GET    /api/v1/auth/google/callback
//	GET    /api/v1/link/all                     bearer
//	POST   /api/v1/link/create                  bearer
//	PUT    /api/v1/link/update                  bearer
//	PUT    /api/v1/link/change-status           bearer
//	DELETE /api/v1/link/delete                  bearer
//	GET    /api/v1/profile/my-profile           bearer
//	GET    /api/v1/profile/{username}           bearer
//	POST   /api/v1/profile/create-username      bearer
//	PUT    /api/v1/profile/update-username      bearer
//	PUT    /api/v1/profile/update-status        bearer
//	GET    /api/v1/public/profile/{username}    X-API-Key
//
// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS, rate limiter.
// RealIP must run before the limiter so clients are keyed by their own address.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/linkbio/internal/auth"
	"github.com/sakif/linkbio/internal/config"
	"github.com/sakif/linkbio/internal/handler"
	"github.com/sakif/linkbio/internal/middleware"
	"github.com/sakif/linkbio/internal/repository"
	"github.com/sakif/linkbio/internal/repository/postgres"
	sqliteRepo "github.com/sakif/linkbio/internal/repository/sqlite"
	"github.com/sakif/linkbio/internal/service"
)

// Server owns the router and the store. The store is closed when Start returns.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    repository.Store
	verifier handler.IdentityVerifier

	// stop ends background work started by New, such as Google key refresh.
	stop context.CancelFunc
}

// Option customises a Server.
type Option func(*Server)

// WithVerifier replaces the Google ID token verifier.
func WithVerifier(v handler.IdentityVerifier) Option {
	return func(s *Server) { s.verifier = v }
}

// New opens the configured store and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	bg, stop := context.WithCancel(ctx)
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		stop:   stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil {
		verifier, err := auth.NewGoogleVerifier(bg, cfg.GoogleAudiences)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.verifier = verifier
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverSQLite, "":
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and releases the store.
func (s *Server) Close() error {
	s.stop()
	return s.store.Close()
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", auth.APIKeyHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
	if len(s.config.RateLimitTiers) > 0 {
		s.router.Use(middleware.NewRateLimiter(s.config.RateLimitTiers, s.logger).Middleware)
	} else {
		s.logger.Warn("rate limiting disabled")
	}

	// Services receive the narrow repository interfaces; handlers receive services.
	authService := service.NewAuthService(s.store, tokens, s.logger)
	profileService := service.NewProfileService(s.store, s.logger)
	linkService := service.NewLinkService(s.store, s.logger)
	publicService := service.NewPublicService(s.store, s.logger)
	healthService := service.NewHealthService(s.store, s.config.Environment, s.config.Version, s.logger)

	var google *auth.GoogleProvider
	if s.config.GoogleWebFlowEnabled() {
		google = auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleRedirectURL)
	}

	authHandler := handler.NewAuthHandler(s.verifier, authService, google, s.config.IsProduction(), s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	linkHandler := handler.NewLinkHandler(linkService, s.logger)
	publicHandler := handler.NewPublicHandler(publicService, s.logger)
	healthHandler := handler.NewHealthHandler(healthService)

	if len(s.config.APIKeys) == 0 {
		s.logger.Warn("API_KEY not set; public profile reads will be rejected")
	}
	apiKeys := auth.NewAPIKeyGuard(s.config.APIKeys, s.logger)

	s.router.Get("/api/health", healthHandler.HandleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/google", authHandler.HandleGoogleToken)
		if google != nil {
			r.Get("/auth/google/login", authHandler.HandleGoogleLogin)
			r.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/link", func(r chi.Router) {
				r.Get("/all", linkHandler.HandleList)
				r.Post("/create", linkHandler.HandleCreate)
				r.Put("/update", linkHandler.HandleUpdate)
				r.Put("/change-status", linkHandler.HandleChangeStatus)
				r.Delete("/delete", linkHandler.HandleDelete)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/my-profile", profileHandler.HandleMyProfile)
				r.Post("/create-username", profileHandler.HandleCreateUsername)
				r.Put("/update-username", profileHandler.HandleUpdateUsername)
				r.Put("/update-status", profileHandler.HandleUpdateStatus)
				r.Get("/{username}", profileHandler.HandleGetByUsername)
			})
		})

		r.With(apiKeys.Require).Get("/public/profile/{username}", publicHandler.HandleGetProfile)
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the server.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Environment),
			slog.String("database", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
