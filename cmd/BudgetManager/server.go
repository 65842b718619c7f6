package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sebuszqo/BudgetManager/internal/auth"
	"github.com/sebuszqo/BudgetManager/internal/config"
	"github.com/sebuszqo/BudgetManager/internal/finance/application"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/finance/infrastructure"
	"github.com/sebuszqo/BudgetManager/internal/finance/interfaces"
	"github.com/sebuszqo/BudgetManager/internal/logger"
	"github.com/sebuszqo/BudgetManager/internal/user"
	"github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}
	respondJSON(w, status, payload)
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Path not found")
}

// repositories groups the storage the server is built on.
type repositories struct {
	users        user.Repository
	twoFactor    auth.TwoFactorRepository
	transactions domain.TransactionRepository
	budgets      domain.BudgetRepository
	goals        domain.GoalRepository
	categories   domain.CategoryRepository
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		users:        user.NewUserRepository(db),
		twoFactor:    auth.NewTwoFactorRepository(db),
		transactions: infrastructure.NewTransactionRepository(db),
		budgets:      infrastructure.NewBudgetRepository(db),
		goals:        infrastructure.NewGoalRepository(db),
		categories:   infrastructure.NewCategoryRepository(db),
	}
}

type HealthFunc func(ctx context.Context) map[string]string

type Server struct {
	router             http.Handler
	cfg                config.Config
	log                logrus.FieldLogger
	health             HealthFunc
	authHandler        *auth.Handler
	authService        auth.Service
	userHandler        *user.Handler
	categoryHandler    *interfaces.CategoryHandler
	transactionHandler *interfaces.TransactionHandler
	budgetHandler      *interfaces.BudgetHandler
	goalHandler        *interfaces.GoalHandler
	analyticsHandler   *interfaces.AnalyticsHandler
}

func NewServer(cfg config.Config, log logrus.FieldLogger, repos repositories, sessions auth.SessionManagerInterface, clock application.Clock, health HealthFunc) *Server {
	userService := user.NewUserService(repos.users, log)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewAuthService(repos.twoFactor, userService, sessions, jwtManager, auth.NewAuthenticator(cfg.AppName), log)

	s := &Server{
		cfg:         cfg,
		log:         log,
		health:      health,
		authService: authService,
		authHandler: auth.NewHandler(authService, cfg.RefreshTokenTTL, !cfg.IsDevelopment(), log),
		userHandler: user.NewHandler(userService, log),
		categoryHandler: interfaces.NewCategoryHandler(
			application.NewCategoryService(repos.categories, log), respondJSON, respondError, log),
		transactionHandler: interfaces.NewTransactionHandler(
			application.NewTransactionService(repos.transactions, log, clock), respondJSON, respondError, log),
		budgetHandler: interfaces.NewBudgetHandler(
			application.NewBudgetService(repos.budgets, log), respondJSON, respondError, log),
		goalHandler: interfaces.NewGoalHandler(
			application.NewGoalService(repos.goals, log), respondJSON, respondError, log),
		analyticsHandler: interfaces.NewAnalyticsHandler(
			application.NewAnalyticsService(repos.transactions, repos.budgets, log, clock), respondJSON, respondError, log),
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	stats := s.health(r.Context())
	if stats["status"] != "up" {
		s.log.WithField("error", stats["error"]).Error("readiness check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) RegisterRoutes() {
	publicRoutes := http.NewServeMux()
	publicRoutes.HandleFunc("GET /api/ready", s.handleReady)
	publicRoutes.HandleFunc("POST /api/auth/register", s.userHandler.HandleRegister)
	publicRoutes.HandleFunc("POST /api/auth/token", s.authHandler.HandleLogin)
	publicRoutes.HandleFunc("POST /api/auth/2fa/verify", s.authHandler.HandleVerifyTwoFactor)
	publicRoutes.HandleFunc("POST /api/auth/logout", s.authHandler.HandleLogout)
	publicRoutes.HandleFunc("GET /api/categories", s.categoryHandler.GetCategories)
	publicRoutes.HandleFunc("/api/", notFoundHandler)

	protectedRoutes := http.NewServeMux()
	protectedRoutes.HandleFunc("GET /api/protected/me", s.userHandler.HandleGetUserProfile)
	protectedRoutes.HandleFunc("PUT /api/protected/me", s.userHandler.HandleUpdateUserProfile)

	protectedRoutes.HandleFunc("POST /api/protected/2fa/register", s.authHandler.HandleRegisterTwoFactor)
	protectedRoutes.HandleFunc("POST /api/protected/2fa/verify-registration", s.authHandler.HandleVerifyTwoFactorRegistration)
	protectedRoutes.HandleFunc("DELETE /api/protected/2fa/disable", s.authHandler.HandleDisableTwoFactor)

	protectedRoutes.HandleFunc("POST /api/protected/categories", s.categoryHandler.CreateCategory)

	// TRANSACTIONS
	protectedRoutes.HandleFunc("POST /api/protected/transactions", s.transactionHandler.CreateTransaction)
	protectedRoutes.HandleFunc("POST /api/protected/transactions/bulk", s.transactionHandler.CreateTransactionsBulk)
	protectedRoutes.HandleFunc("GET /api/protected/transactions", s.transactionHandler.GetUserTransactions)
	protectedRoutes.HandleFunc("GET /api/protected/transactions/{transactionID}", s.transactionHandler.GetTransaction)
	protectedRoutes.HandleFunc("PUT /api/protected/transactions/{transactionID}", s.transactionHandler.UpdateTransaction)
	protectedRoutes.HandleFunc("DELETE /api/protected/transactions/{transactionID}", s.transactionHandler.DeleteTransaction)
	protectedRoutes.HandleFunc("GET /api/protected/transactions/summary/analytics", s.analyticsHandler.GetTransactionsAnalytics)

	// ANALYTICS
	protectedRoutes.HandleFunc("GET /api/protected/analytics/summary", s.analyticsHandler.GetSummary)
	protectedRoutes.HandleFunc("GET /api/protected/analytics/trend", s.analyticsHandler.GetTrend)

	// BUDGETS
	protectedRoutes.HandleFunc("POST /api/protected/budgets", s.budgetHandler.CreateBudget)
	protectedRoutes.HandleFunc("GET /api/protected/budgets", s.budgetHandler.GetBudgets)
	protectedRoutes.HandleFunc("GET /api/protected/budgets/alerts", s.analyticsHandler.GetBudgetAlerts)
	protectedRoutes.HandleFunc("PUT /api/protected/budgets/{budgetID}", s.budgetHandler.UpdateBudget)
	protectedRoutes.HandleFunc("DELETE /api/protected/budgets/{budgetID}", s.budgetHandler.DeleteBudget)

	// GOALS
	protectedRoutes.HandleFunc("POST /api/protected/goals", s.goalHandler.CreateGoal)
	protectedRoutes.HandleFunc("GET /api/protected/goals", s.goalHandler.GetGoals)
	protectedRoutes.HandleFunc("GET /api/protected/goals/{goalID}", s.goalHandler.GetGoal)
	protectedRoutes.HandleFunc("PUT /api/protected/goals/{goalID}", s.goalHandler.UpdateGoal)
	protectedRoutes.HandleFunc("DELETE /api/protected/goals/{goalID}", s.goalHandler.DeleteGoal)

	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.HandleFunc("PUT /api/refresh/token", s.authHandler.HandleRefreshToken)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", s.authService.JWTAccessTokenMiddleware()(protectedRoutes))
	mainRouter.Handle("/api/refresh/", s.authService.JWTRefreshTokenMiddleware()(refreshTokenRoutes))
	mainRouter.HandleFunc("/", notFoundHandler)

	s.router = logger.Recover(s.log)(logger.Middleware(s.log)(corsMiddleware(s.cfg.AllowedOrigins)(mainRouter)))
}

// corsMiddleware allows credentialed requests from the configured origins and
// answers preflight requests directly.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
