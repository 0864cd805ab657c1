package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/tour-ratings/internal/auth"
	"github.com/Clark-Hu/tour-ratings/internal/authz"
	"github.com/Clark-Hu/tour-ratings/internal/config"
	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/features"
	"github.com/Clark-Hu/tour-ratings/internal/logging"
)

// RatingService is the rating use-case surface the handlers need.
type RatingService interface {
	LookupRatings(ctx context.Context, tourID int) ([]domain.Rating, error)
	AverageScore(ctx context.Context, tourID int) (float64, error)
	CreateNew(ctx context.Context, tourID, customerID, score int, comment *string) (domain.Rating, error)
	Update(ctx context.Context, tourID, customerID, score int, comment *string) (domain.Rating, error)
	UpdateSome(ctx context.Context, tourID, customerID int, score *int, comment *string) (domain.Rating, error)
	Delete(ctx context.Context, tourID, customerID int) error
	RateMany(ctx context.Context, tourID, score int, customerIDs []int) ([]domain.Rating, error)
}

// Recommender produces ranked tour lists.
type Recommender interface {
	RecommendTopN(ctx context.Context, limit int) ([]domain.Recommendation, error)
	RecommendForCustomer(ctx context.Context, customerID, limit int) ([]domain.Recommendation, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps bundles the collaborators of the HTTP layer.
type Deps struct {
	Health      HealthChecker
	Ratings     RatingService
	Recommender Recommender
	Auth        *auth.Authenticator
	Enforcer    *authz.Enforcer
	Flags       features.Flags
	Logger      zerolog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg         config.Config
	health      HealthChecker
	ratings     RatingService
	recommender Recommender
	auth        *auth.Authenticator
	enforcer    *authz.Enforcer
	flags       features.Flags
	logger      zerolog.Logger
	router      chi.Router
	httpSrv     *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		health:      deps.Health,
		ratings:     deps.Ratings,
		recommender: deps.Recommender,
		auth:        deps.Auth,
		enforcer:    deps.Enforcer,
		flags:       deps.Flags,
		logger:      deps.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(logging.RequestID(s.logger))
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.accessLog)
	r.Use(s.instrument)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(s.cors())
	}
	if cfg.RateLimitRequests > 0 {
		r.Use(s.rateLimit())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, codeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	s.router = r
	s.registerRoutes()
	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.auth, s.respondUnauthorized))
		r.Use(authz.Middleware(s.enforcer, s.respondForbidden, s.respondInternal))

		r.Route("/tours/{tourId}/ratings", func(r chi.Router) {
			r.Use(s.requireFeature(features.TourRatings))
			r.Get("/", s.handleListRatings)
			r.Get("/average", s.handleAverageScore)
			r.Post("/", s.handleCreateRating)
			r.Put("/", s.handleUpdateRating)
			r.Patch("/", s.handlePatchRating)
			r.Delete("/{customerId}", s.handleDeleteRating)
			r.Post("/batch", s.handleRateMany)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Use(s.requireFeature(features.Recommendations))
			r.Get("/top", s.handleTopRecommendations)
			r.Get("/customers/{customerId}", s.handleCustomerRecommendations)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store not configured")
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
