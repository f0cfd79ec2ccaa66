package handler

import (
	"core-banking-ledger/internal/adapter/http/middleware"
	redisStore "core-banking-ledger/internal/adapter/storage/redis"
	"core-banking-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	MovementSvc    ports.MovementService
	BeneficiarySvc ports.BeneficiaryService
	HistorySvc     ports.HistoryService
	AuthCodes      ports.AuthCodeStore
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	DemoAuthCodes  bool
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	accountHandler := NewAccountHandler(deps.AccountSvc)
	v1.POST("/users", rl("register"), accountHandler.Register)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("movements"), accountHandler.Open)
		accounts.GET("", rl("reads"), accountHandler.List)
		accounts.GET("/:id", rl("reads"), accountHandler.Get)
	}

	movementHandler := NewMovementHandler(deps.MovementSvc, deps.AuthCodes, deps.DemoAuthCodes)
	v1.POST("/deposits", jwtAuth, rl("movements"), movementHandler.Deposit)
	v1.POST("/withdrawals", jwtAuth, rl("movements"), movementHandler.Withdraw)

	transfers := v1.Group("/transfers", jwtAuth)
	{
		transfers.POST("/internal", rl("movements"), movementHandler.TransferInternal)
		transfers.POST("/external/authorize", rl("authorize"), movementHandler.AuthorizeExternal)
		transfers.POST("/external", rl("movements"), movementHandler.TransferExternal)
		transfers.POST("/email", rl("movements"), movementHandler.TransferByEmail)
	}

	beneficiaryHandler := NewBeneficiaryHandler(deps.BeneficiarySvc)
	beneficiaries := v1.Group("/beneficiaries", jwtAuth)
	{
		beneficiaries.POST("", rl("movements"), beneficiaryHandler.Add)
		beneficiaries.GET("", rl("reads"), beneficiaryHandler.List)
	}

	historyHandler := NewHistoryHandler(deps.HistorySvc)
	v1.GET("/accounts/:id/transactions", jwtAuth, rl("reads"), historyHandler.ForAccount)
	v1.GET("/transactions", jwtAuth, rl("reads"), historyHandler.ForUser)

	return r
}
