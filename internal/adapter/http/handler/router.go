package handler

import (
	"komodo-ledger/internal/adapter/http/middleware"
	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CheckoutSvc    ports.CheckoutService
	OrderSvc       ports.OrderService
	LedgerSvc      ports.LedgerService
	AuditSvc       ports.AuditService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes (all JWT-authenticated)
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	orderHandler := NewOrderHandler(deps.CheckoutSvc, deps.OrderSvc)
	orders := v1.Group("/orders")
	{
		orders.POST("", orderHandler.Checkout)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id",
			middleware.RequireRole("manage orders", domain.Role.CanManageOrders),
			orderHandler.UpdateStatus)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc)
	wallet := v1.Group("/wallet")
	{
		wallet.GET("/me", walletHandler.GetMyWallet)
		wallet.GET("/transactions", walletHandler.ListTransactions)
		wallet.POST("/add-funds",
			middleware.RequireRole("add funds", domain.Role.CanAddFunds),
			walletHandler.AddFunds)
	}

	auditHandler := NewAuditHandler(deps.AuditSvc)
	audit := v1.Group("/audit", middleware.RequireRole("run audits", domain.Role.CanAudit))
	{
		audit.GET("/reconcile", auditHandler.Reconcile)
		audit.GET("/balance", auditHandler.Balance)
		audit.GET("/export", auditHandler.Export)
	}

	return r
}
