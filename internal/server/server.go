package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evanmcd/splitnest/internal/expense"
	"github.com/evanmcd/splitnest/internal/handler"
	"github.com/evanmcd/splitnest/internal/household"
	"github.com/evanmcd/splitnest/internal/middleware"
	"github.com/evanmcd/splitnest/internal/store"
	ws "github.com/evanmcd/splitnest/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	expenseH       *handler.ExpenseHandler
	sessionStore   *store.SessionStore
	userStore      *store.UserStore
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, allowedOrigins []string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	removalStore := store.NewRemovalStore(db)
	expenseStore := store.NewExpenseStore(db)
	sessionStore := store.NewSessionStore(db)

	householdSvc := household.NewService(db, userStore, householdStore, removalStore, hub, logger.With("component", "household"))
	expenseSvc := expense.NewService(db, userStore, expenseStore, hub, logger.With("component", "expense"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(householdSvc, logger.With("component", "household_handler")),
		expenseH:       handler.NewExpenseHandler(expenseSvc, logger.With("component", "expense_handler")),
		sessionStore:   sessionStore,
		userStore:      userStore,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.Handler())

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	h := corsHandler(outerMux)
	h = middleware.Metrics()(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Household membership
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/current", s.householdH.Current)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("POST /api/households/leave", s.householdH.Leave)
	mux.HandleFunc("POST /api/households/transfer-admin", s.householdH.TransferAdmin)
	mux.HandleFunc("POST /api/households/regenerate-code", s.householdH.RegenerateCode)

	// Removal voting
	mux.HandleFunc("POST /api/households/removal-requests", s.householdH.RequestRemoval)
	mux.HandleFunc("GET /api/households/removal-requests", s.householdH.ListRemovalRequests)
	mux.HandleFunc("POST /api/households/removal-requests/{id}/vote", s.householdH.Vote)

	// Expense ledger
	mux.HandleFunc("POST /api/expenses", s.expenseH.Create)
	mux.HandleFunc("GET /api/expenses", s.expenseH.List)
	mux.HandleFunc("PUT /api/expense-splits/{id}/settle", s.expenseH.SettleSplit)
	mux.HandleFunc("PUT /api/settle-with/{user_id}", s.expenseH.SettleWithUser)
	mux.HandleFunc("GET /api/balances", s.expenseH.Balances)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
