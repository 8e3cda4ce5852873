package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetcare/internal/cache"
	"budgetcare/internal/core"
	"budgetcare/internal/editor"
	"budgetcare/internal/log"
	"budgetcare/internal/middleware/ratelimit"
	"budgetcare/internal/middleware/security"
	"budgetcare/internal/middleware/trace"
	"budgetcare/internal/ports"
	"budgetcare/internal/services"
)

// Server wraps http.Server with the budget API routes.
type Server struct {
	http.Server

	reservations *services.ReservationService
	plans        ports.PlanReader
	sessions     *editor.Sessions
	logger       *log.Logger
	now          func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	overviews   *cache.LRUCache[services.PlanOverview]
	caches      *cache.Manager
	overviewMu  sync.Mutex // guards generation with overview writes
	generation  uint64
	ready       func(context.Context) error
	rateLimit   int
	cleanupTick time.Duration

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentHTTP) }
}

// WithRateLimit caps mutating requests per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func WithEditorSessions(sessions *editor.Sessions) Option {
	return func(s *Server) { s.sessions = sessions }
}

// WithReadinessCheck makes /readyz report 503 while fn fails.
func WithReadinessCheck(fn func(context.Context) error) Option {
	return func(s *Server) { s.ready = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Call Shutdown to stop it and its background cleanup.
func NewServer(addr string, reservations *services.ReservationService, plans ports.PlanReader, opts ...Option) *Server {
	s := &Server{
		reservations: reservations,
		plans:        plans,
		logger:       log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP),
		now:          time.Now,
		rateLimit:    ratelimit.DefaultConfig().RequestsPerMinute,
		cleanupTick:  time.Minute,
		overviews:    cache.NewLRUCache[services.PlanOverview](100, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = editor.NewSessions(100, 30*time.Minute)
	}

	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimit})

	s.caches = cache.NewManager(s.logger.WithComponent(log.ComponentCache).Logger)
	s.caches.Register(s.overviews)
	s.caches.Register(s.sessions.Cache())
	s.caches.StartCleanup(s.cleanupTick)

	reservations.OnChange(s.invalidateOverview)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(msgNotFound).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/health", handleHealthJSON)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)
		r.Route("/plans/{planID}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Get("/overview", s.handlePlanOverview)
			r.Get("/revisions", s.handlePlanRevisions)
			r.Get("/executions", s.handlePlanExecutions)
			r.Get("/reservations", s.handleListPlanReservations)
			r.Post("/reservations", s.handleCreateReservation)
			r.Get("/categories/{categoryID}/summary", s.handleCategorySummary)
			r.Get("/export.csv", s.handleExport)
			r.Post("/editor", s.handleOpenEditor)
		})

		r.Get("/reservations", s.handleListReservations)
		r.Post("/reservations/{id}/convert", s.handleConvertReservation)
		r.Post("/reservations/{id}/cancel", s.handleCancelReservation)
		r.Delete("/reservations/{id}", s.handleDeleteReservation)

		r.Get("/editor/{sessionID}", s.handleGetEditor)
		r.Post("/editor/{sessionID}/actions", s.handleEditorAction)
	})
	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", msgRateLimited).Write(w)
}

// Shutdown stops the HTTP server and background cleanup. Safe to call more
// than once; only the first call does the work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateOverview drops the cached overview of the plan a change touched.
func (s *Server) invalidateOverview(ev core.ReservationEvent) {
	s.overviewMu.Lock()
	defer s.overviewMu.Unlock()
	s.generation++
	s.overviews.Delete(overviewKey(ev.Reservation.PlanID))
}

func (s *Server) overviewGeneration() uint64 {
	s.overviewMu.Lock()
	defer s.overviewMu.Unlock()
	return s.generation
}

// storeOverview caches ov unless a change was committed since gen.
func (s *Server) storeOverview(key string, gen uint64, ov services.PlanOverview) bool {
	s.overviewMu.Lock()
	defer s.overviewMu.Unlock()
	if s.generation != gen {
		return false
	}
	s.overviews.Set(key, ov)
	return true
}

// planOverview serves overviews from the cache. A result computed while a
// mutation committed is returned but not cached.
func (s *Server) planOverview(ctx context.Context, planID string) (services.PlanOverview, error) {
	key := overviewKey(planID)
	if ov, ok := s.overviews.Get(key); ok {
		log.FromContext(ctx).DebugContext(ctx, "Overview cache hit", log.FieldPlanID, planID)
		return ov, nil
	}

	gen := s.overviewGeneration()
	ov, err := s.reservations.PlanOverview(ctx, planID)
	if err != nil {
		return services.PlanOverview{}, err
	}
	s.storeOverview(key, gen, ov)
	return ov, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleHealthJSON(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			NewJSONResponse().Status(http.StatusServiceUnavailable).
				Data(map[string]string{"status": "unavailable"}).Write(w)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsBody struct {
	Requests  trace.Metrics            `json:"requests"`
	Security  security.DetectionMetrics `json:"security"`
	RateLimit ratelimit.Metrics        `json:"rate_limit"`
	Cache     map[string]int           `json:"cache"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(metricsBody{
		Requests:  s.tracer.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Cache: map[string]int{
			"overviews":       s.overviews.Size(),
			"editor_sessions": s.sessions.Cache().Size(),
		},
	}).Write(w)
}

// fail writes err as a JSON error and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op, log.FieldError, err, log.FieldErrorType, errorType(status))
	} else {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Request refused",
			log.FieldOperation, op, log.FieldError, err, log.FieldErrorType, errorType(status))
	}
	DomainError(err).Write(w)
}

// errorType buckets a response status for logging.
func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return log.ErrorTypeNotFound
	case status == http.StatusConflict:
		return log.ErrorTypeConflict
	case status >= http.StatusInternalServerError:
		return log.ErrorTypeInternal
	default:
		return log.ErrorTypeValidation
	}
}
