package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/internal/auth"
	"github.com/Clark-Hu/course-reviews/internal/config"
	"github.com/Clark-Hu/course-reviews/internal/ratelimit"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	repo    *repository.Repository
	tokens  *auth.Tokens
	hasher  auth.Hasher
	limiter *ratelimit.Limiter
	logger  *logrus.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes. limiter may
// be nil to disable rate limiting.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, tokens *auth.Tokens, limiter *ratelimit.Limiter, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.CORSAllowedOrigins).Handler)

	s := &Server{
		cfg:     cfg,
		store:   st,
		repo:    repo,
		tokens:  tokens,
		hasher:  auth.NewHasher(cfg.BcryptCost),
		limiter: limiter,
		logger:  logger,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimit).Post("/register", s.handleRegister)
			r.With(s.rateLimit).Post("/login", s.handleLogin)
			r.Get("/profile", s.requireAuth(s.handleProfile))
		})
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleListCourses)
			r.Post("/", s.requireAuth(s.handleCreateCourse))
			r.Route("/{courseID}", func(r chi.Router) {
				r.Get("/", s.handleGetCourse)
				r.Put("/", s.requireAuth(s.handleUpdateCourse))
				r.Delete("/", s.requireAuth(s.handleDeleteCourse))
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", s.handleListCourseReviews)
					r.Post("/", s.requireAuth(s.handleCreateReview))
					r.Get("/{reviewID}", s.handleGetReview)
					r.Put("/{reviewID}", s.requireAuth(s.handlePatchReview))
					r.Delete("/{reviewID}", s.requireAuth(s.handleDeleteReview))
				})
			})
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", s.handleListReviews)
			r.Get("/{reviewID}", s.handleGetReview)
			r.Put("/{reviewID}", s.requireAuth(s.handleReplaceReview))
			r.Delete("/{reviewID}", s.requireAuth(s.handleDeleteReview))
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
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpSrv.Addr).Info("http: listening")
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
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status      string `json:"status"`
	TotalConns  int32  `json:"totalConns"`
	IdleConns   int32  `json:"idleConns"`
	RateLimiter string `json:"rateLimiter,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}

	resp := healthResponse{Status: "ok"}
	if stats := s.store.Stats(); stats != nil {
		resp.TotalConns = stats.TotalConns()
		resp.IdleConns = stats.IdleConns()
	}
	if s.limiter != nil {
		resp.RateLimiter = s.limiter.State().String()
	}
	s.respondJSON(w, http.StatusOK, resp)
}
