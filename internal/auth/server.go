// Package auth is the demo login service and its client. It checks one
// configured credential pair and issues an unsigned session token.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetcare/internal/log"
	"budgetcare/internal/middleware/security"
	"budgetcare/internal/middleware/trace"
)

const (
	DefaultDemoEmail    = "finance@solidcam.org"
	DefaultDemoPassword = "BudgetCare!23"
	DefaultDelay        = 600 * time.Millisecond

	msgInvalidCredentials = "Identifiants invalides"
	msgMalformedBody      = "Requête invalide"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the login response body.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Config struct {
	DemoEmail    string
	DemoPassword string
	DemoName     string
	Delay        time.Duration
}

func DefaultConfig() Config {
	return Config{
		DemoEmail:    DefaultDemoEmail,
		DemoPassword: DefaultDemoPassword,
		DemoName:     "Service Finance",
		Delay:        DefaultDelay,
	}
}

// Token encodes "email:unixMillis" in standard base64.
func Token(email string, now time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + strconv.FormatInt(now.UnixMilli(), 10)))
}

// Server answers POST /auth/login and GET /health.
type Server struct {
	http.Server

	cfg    Config
	logger *log.Logger
	now    func() time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentAuth),
		now:    time.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	detector := security.NewDetector(s.logger)

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(detector.ExtractClientIP, s.logger).Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/auth/login", s.handleLogin)
	return r
}

// Shutdown is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() { err = s.Server.Shutdown(ctx) })
	return err
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": msgMalformedBody})
		return
	}

	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.DebugContext(ctx, "Login abandoned by client", log.FieldError, ctx.Err())
			return
		}
	}

	email := strings.TrimSpace(req.Email)
	if !strings.EqualFold(email, s.cfg.DemoEmail) || req.Password != s.cfg.DemoPassword {
		s.logger.WarnContext(ctx, "Login rejected", "email", email)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": msgInvalidCredentials})
		return
	}

	session := Session{
		Token: Token(s.cfg.DemoEmail, s.now()),
		User: User{
			ID:    "user-finance",
			Name:  s.cfg.DemoName,
			Email: s.cfg.DemoEmail,
		},
	}
	s.logger.InfoContext(ctx, "Login accepted", "email", s.cfg.DemoEmail)
	writeJSON(w, http.StatusOK, session)
}

// cors allows the browser front end, served from another origin, to call
// the login endpoint.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
