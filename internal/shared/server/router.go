package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-generator/internal/shared/config"
	"resume-generator/internal/shared/metrics"
	"resume-generator/internal/shared/server/middleware"
	"resume-generator/internal/shared/server/respond"
)

// RouteRegistrar is implemented by domain handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Handlers    []RouteRegistrar
	RateLimiter *middleware.RateLimiter
	// Rules overrides the default per-group rate limits.
	Rules map[string]middleware.RateLimitRule
}

// DefaultRateLimitRules returns per-user limits for generation and polling.
func DefaultRateLimitRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		middleware.RateLimitGroupGenerate: {Rate: 0.1, Burst: 3},
		middleware.RateLimitGroupPolling:  {Rate: 5, Burst: 20},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	rules := deps.Rules
	if rules == nil {
		rules = DefaultRateLimitRules()
	}
	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(time.Now)
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	limited := api.Group("")
	limited.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: middleware.RateLimitGroupGenerate,
		GroupFor:     rateLimitGroup,
		Limiter:      limiter,
	}))
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(limited)
		}
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodGet {
		return middleware.RateLimitGroupPolling
	}
	return middleware.RateLimitGroupGenerate
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
