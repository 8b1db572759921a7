package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/budgets"
	"max.ks1230/finance-tracker/internal/model/export"
	"max.ks1230/finance-tracker/internal/model/finance"
	"max.ks1230/finance-tracker/internal/model/transactions"
	"max.ks1230/finance-tracker/internal/model/users"
)

const (
	chartEndpoint    = "chart-data"
	categoryEndpoint = "category-data"
)

type authConfig interface {
	JWTSecret() string
	TokenTTLHours() int64
}

type chartCache interface {
	CachePayload(userID int64, endpoint, option string, payload []byte) error
	GetPayload(userID int64, endpoint, option string) ([]byte, error)
	Invalidate(userID int64, endpoints, options []string) error
}

type categoryStorage interface {
	ListCategories(ctx context.Context, userID int64) ([]ledger.Category, error)
}

type Server struct {
	engine *gin.Engine

	users        *users.Service
	transactions *transactions.Service
	budgets      *budgets.Service
	finance      *finance.Service
	export       *export.Service

	categories categoryStorage
	cache      chartCache
	auth       authConfig
}

func New(
	usersService *users.Service,
	transactionsService *transactions.Service,
	budgetsService *budgets.Service,
	financeService *finance.Service,
	exportService *export.Service,
	categories categoryStorage,
	cache chartCache,
	auth authConfig,
) *Server {
	s := &Server{
		engine:       gin.New(),
		users:        usersService,
		transactions: transactionsService,
		budgets:      budgetsService,
		finance:      financeService,
		export:       exportService,
		categories:   categories,
		cache:        cache,
		auth:         auth,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.Use(gin.Recovery(), metricsMiddleware(), tracingMiddleware())

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/register", s.handleRegister)
	s.engine.POST("/login", s.handleLogin)
	s.engine.POST("/logout", s.handleLogout)

	authed := s.engine.Group("/", s.authRequired())

	authed.GET("/dashboard", s.handleDashboard)
	authed.GET("/dashboard/chart-data", s.handleChartData)
	authed.GET("/dashboard/category-data", s.handleCategoryData)

	authed.GET("/categories", s.handleCategories)

	authed.GET("/transactions", s.handleTransactionList)
	authed.POST("/transactions/add", s.handleTransactionAdd)
	authed.POST("/transactions/:id/edit", s.handleTransactionEdit)
	authed.POST("/transactions/:id/delete", s.handleTransactionDelete)

	authed.GET("/budgets", s.handleBudgetList)
	authed.POST("/budgets/add", s.handleBudgetAdd)
	authed.POST("/budgets/:id/edit", s.handleBudgetEdit)
	authed.POST("/budgets/:id/delete", s.handleBudgetDelete)

	authed.GET("/reports", s.handleReport)
	authed.GET("/reports/export", s.handleExport)

	authed.GET("/settings", s.handleSettingsGet)
	authed.POST("/settings", s.handleSettingsPost)
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
