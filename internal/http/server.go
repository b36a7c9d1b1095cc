// Package http exposes the accounts and ledger services as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"aureum/internal/core"
	applog "aureum/internal/log"
	"aureum/internal/middleware/ratelimit"
	"aureum/internal/middleware/security"
	"aureum/internal/middleware/trace"
	"aureum/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr           string
	AppName        string
	AllowedOrigins []string
	RateLimit      int
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	appName  string
	accounts *services.AccountService
	ledger   *services.LedgerService
	store    Pinger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time
}

func NewServer(opts Options, accounts *services.AccountService, ledger *services.LedgerService, store Pinger) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		appName:  opts.AppName,
		accounts: accounts,
		ledger:   ledger,
		store:    store,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ClientIP),
		started:  time.Now(),
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: true,
	})

	var h http.Handler = s.routes()
	h = c.Handler(h)
	h = s.limiter.Middleware(detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "Rate limit exceeded. Please try again later."})
	})(h)
	h = detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(logger.WithComponent(applog.ComponentHTTP), trace.FromRequest)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "Method Not Allowed"})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// public
	api.HandleFunc("/auth/token", s.handleToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users/email-available", s.handleEmailAvailable).Methods(http.MethodGet)
	api.HandleFunc("/users/password-strength", s.handlePasswordStrength).Methods(http.MethodPost)

	authed := api.PathPrefix("").Subrouter()
	authed.Use(s.requireUser)

	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/auth/change-password", s.handleChangePassword).Methods(http.MethodPost)
	authed.HandleFunc("/auth/profile", s.handleUpdateProfile).Methods(http.MethodPut)

	authed.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", s.handleUpdateName).Methods(http.MethodPut)
	authed.HandleFunc("/users/me", s.handleDeleteMe).Methods(http.MethodDelete)
	authed.HandleFunc("/users/me/email", s.handleUpdateEmail).Methods(http.MethodPut)
	authed.HandleFunc("/users/me/stats", s.handleUserStats).Methods(http.MethodGet)
	authed.HandleFunc("/users/me/preferences", s.handleGetPreferences).Methods(http.MethodGet)
	authed.HandleFunc("/users/me/preferences", s.handleUpdatePreferences).Methods(http.MethodPut)

	// fixed paths are registered before /{id}
	tx := authed.PathPrefix("/transactions").Subrouter()
	tx.HandleFunc("", s.handleCreateTransaction).Methods(http.MethodPost)
	tx.HandleFunc("", s.handleListTransactions("")).Methods(http.MethodGet)
	tx.HandleFunc("/income", s.handleListTransactions(core.Income)).Methods(http.MethodGet)
	tx.HandleFunc("/expense", s.handleListTransactions(core.Expense)).Methods(http.MethodGet)
	tx.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	tx.HandleFunc("/analysis/monthly", s.handleMonthlyAnalysis).Methods(http.MethodGet)
	tx.HandleFunc("/analysis/category", s.handleCategoryAnalysis).Methods(http.MethodGet)
	tx.HandleFunc("/stats/general", s.handleGeneralStats).Methods(http.MethodGet)
	tx.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	tx.HandleFunc("/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	tx.HandleFunc("/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	tx.HandleFunc("/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	return r
}

// RateLimiter exposes the limiter so the caller can run its cleanup loop.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.limiter
}
