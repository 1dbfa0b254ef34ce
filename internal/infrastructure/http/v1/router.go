// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
	"branchpos/internal/domain/branch"
	"branchpos/internal/domain/catalogs/product"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/http/v1/handlers"
	"branchpos/internal/infrastructure/http/v1/middleware"
	"branchpos/internal/infrastructure/metrics"
	"branchpos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Metrics records HTTP metrics; may be nil
	Metrics *metrics.Metrics

	// Gatherer backs GET /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer

	// HealthChecks are probed by GET /health/ready
	HealthChecks map[string]handlers.Pinger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Runner opens the per-request tenancy scope
	Runner tenancy.Runner

	// Selector resolves and changes the session branch
	Selector *branch.Selector

	// Guard authorizes (resource, action) for the scoped actor
	Guard *security.Guard

	Products *product.Service
	Policies *rbac.AdminService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1: every request runs in exactly one tenancy scope.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))            // 1. Validate JWT
	v1.Use(middleware.Tenancy(cfg.Selector, cfg.Runner)) // 2. Resolve branch, open scope
	{
		base := handlers.NewBaseHandler()

		registerSessionRoutes(v1, base, cfg)
		registerProductRoutes(v1, base, cfg)
		registerPermissionRoutes(v1, base, cfg)
	}

	return router
}

// registerSessionRoutes registers branch selection endpoints.
func registerSessionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSessionHandler(base, cfg.Selector)

	session := rg.Group("/session")
	{
		session.GET("/branch", h.GetBranch)
		session.POST("/branch", middleware.RequireAdmin(), h.SelectBranch)
		session.DELETE("/branch", middleware.RequireAdmin(), h.ClearBranch)
		session.POST("/logout", h.Logout)
	}
}

// registerProductRoutes registers the branch-scoped product catalog.
func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Products == nil {
		return
	}
	h := handlers.NewProductHandler(base, cfg.Products)
	perm := func(a security.Action) gin.HandlerFunc {
		return middleware.RequirePermission(cfg.Guard, product.Resource, a)
	}

	products := rg.Group("/products")
	{
		products.GET("", perm(security.ActionView), h.List)
		products.POST("", perm(security.ActionCreate), h.Create)
		products.GET("/:id", perm(security.ActionView), h.Get)
		products.PUT("/:id", perm(security.ActionUpdate), h.Update)
		products.DELETE("/:id", perm(security.ActionDelete), h.Delete)
	}
}

// registerPermissionRoutes registers policy administration endpoints.
func registerPermissionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Policies == nil {
		return
	}
	h := handlers.NewPermissionHandler(base, cfg.Policies)
	perm := func(a security.Action) gin.HandlerFunc {
		return middleware.RequirePermission(cfg.Guard, rbac.ResourcePermissions, a)
	}

	permissions := rg.Group("/permissions")
	{
		permissions.GET("/explain", perm(security.ActionView), h.Explain)
		permissions.PUT("/users/:userId/:resource/:action", perm(security.ActionUpdate), h.SetUserOverride)
		permissions.DELETE("/users/:userId/:resource/:action", perm(security.ActionUpdate), h.DeleteUserOverride)
		permissions.PUT("/roles/:role/:resource/:action", perm(security.ActionUpdate), h.SetRoleDefault)
	}
}
