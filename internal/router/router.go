// Package router 注册本地 HTTP API 的路由
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/api"
	"github.com/MorseWayne/storefront/internal/config"
	"github.com/MorseWayne/storefront/internal/limiter"
	"github.com/MorseWayne/storefront/internal/middleware"
)

// HealthFunc 返回各依赖的检查结果，key 为组件名，值为 nil 表示正常
type HealthFunc func(ctx context.Context) map[string]error

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	BasketHandler  *api.BasketHandler
	CatalogHandler *api.CatalogHandler
	AuthHandler    *api.AuthHandler

	// Limiter 为 nil 时不限流
	Limiter  limiter.Limiter
	Gatherer prometheus.Gatherer
	Health   HealthFunc
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine  *gin.Engine
	deps    *Dependencies
	logger  *zap.Logger
	version string
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由；请求 ID、恢复、超时、CORS、访问日志由外层 net/http 中间件链处理
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg
	r.version = cfg.App.Version

	r.setupRoutes()
	return r.engine
}

func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)
	if r.deps.Gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.engine.Group("/api/v1")
	if r.deps.Limiter != nil {
		v1.Use(limiter.RateLimitMiddleware(limiter.MiddlewareConfig{
			Limiter: r.deps.Limiter,
			Logger:  r.logger,
		}))
	}

	basket := r.deps.BasketHandler
	cart := v1.Group("/cart")
	{
		cart.GET("", basket.GetCart)
		cart.DELETE("", basket.ClearCart)
		cart.POST("/items", basket.AddItem)
		cart.PUT("/items/:productId", basket.UpdateItem)
		cart.DELETE("/items/:productId", basket.RemoveItem)
	}

	wishlist := v1.Group("/wishlist")
	{
		wishlist.GET("", basket.GetWishlist)
		wishlist.POST("/toggle", basket.ToggleWishlist)
		wishlist.DELETE("/items/:productId", basket.RemoveWishlistItem)
		wishlist.POST("/items/:productId/move", basket.MoveToCart)
	}
	v1.POST("/checkout", basket.Checkout)

	catalog := r.deps.CatalogHandler
	v1.GET("/products", catalog.ListProducts)
	v1.GET("/products/:id", catalog.GetProduct)
	v1.GET("/categories", catalog.ListCategories)
	v1.GET("/orders", catalog.ListOrders)
	v1.GET("/orders/:id", catalog.GetOrder)
	v1.POST("/orders/:id/cancel", catalog.CancelOrder)
	v1.GET("/payments/config", catalog.PaymentConfig)

	auth := v1.Group("/auth")
	{
		auth.POST("/otp", r.deps.AuthHandler.SendOTP)
		auth.POST("/otp/verify", r.deps.AuthHandler.VerifyOTP)
		auth.POST("/logout", r.deps.AuthHandler.Logout)
		auth.GET("/me", r.deps.AuthHandler.Me)
	}
}

// healthCheck 所有依赖正常时返回 200，否则 503
func (r *GinRouter) healthCheck(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}
	if r.deps.Health != nil {
		for name, err := range r.deps.Health(c.Request.Context()) {
			if err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				r.logger.Warn("health check failed",
					zap.String("component", name),
					zap.String("request_id", middleware.RequestIDFromContext(c.Request.Context())),
					zap.Error(err))
				continue
			}
			checks[name] = "ok"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"version": r.version,
		"checks":  checks,
	})
}
