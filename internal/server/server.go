package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pantry/internal/catalog"
	"pantry/internal/handlers"
	applog "pantry/internal/log"
	"pantry/internal/metrics"
	"pantry/internal/pantry"
)

const requestIDHeader = "X-Request-ID"

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr       string
	Session    SessionConfig
	Database   *gorm.DB
	Ledger     LedgerConfig
	UserHeader string
	// Metrics is created when nil.
	Metrics *metrics.Metrics
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// LedgerConfig carries the inventory policy handed to the pantry service.
type LedgerConfig struct {
	ClampOverdraw           bool
	DefaultMinimumThreshold float64
	ExpiringWindowDays      int
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration. Without a
// database the API answers 503 and only /healthz and /metrics are useful.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionCookie", cfg.Session.CookieName,
	)

	sessionCfg := cfg.Session
	if sessionCfg.Lifetime <= 0 {
		applog.Debug(context.Background(), "session lifetime not provided, using default")
		sessionCfg.Lifetime = 12 * time.Hour
	}
	if strings.TrimSpace(sessionCfg.CookieName) == "" {
		applog.Debug(context.Background(), "session cookie name not provided, using default")
		sessionCfg.CookieName = "pantry_session"
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = sessionCfg.Lifetime
	sessionManager.Cookie.Name = sessionCfg.CookieName
	sessionManager.Cookie.Domain = sessionCfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = sessionCfg.CookieSecure

	applog.Debug(context.Background(), "session manager configured",
		"cookieName", sessionCfg.CookieName,
		"cookieDomain", sessionCfg.CookieDomain,
		"cookieSecure", sessionCfg.CookieSecure,
	)

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	deps := handlers.Dependencies{
		Sessions:           sessionManager,
		UserHeader:         cfg.UserHeader,
		ExpiringWindowDays: cfg.Ledger.ExpiringWindowDays,
	}
	if cfg.Database != nil {
		deps.Service = pantry.NewService(cfg.Database, pantry.Options{
			ClampOverdraw:           cfg.Ledger.ClampOverdraw,
			DefaultMinimumThreshold: cfg.Ledger.DefaultMinimumThreshold,
			Metrics:                 m,
		})
		deps.Catalog = catalog.New(cfg.Database)
	} else {
		applog.Warn(context.Background(), "no database configured, api routes will be unavailable")
	}
	handlers.Configure(deps)

	applog.Debug(context.Background(), "handler dependencies configured")

	handler := withRequestID(sessionManager.LoadAndSave(newRouter(m)))

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// withRequestID tags every request with an id, reusing the caller's
// X-Request-ID when one is sent.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(applog.WithRequestID(r.Context(), id)))
	})
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	applog.Debug(context.Background(), "server handler requested")
	return s.httpServer.Handler
}
