package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/adlens/internal/domain/auth"
	"github.com/yanqian/adlens/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.POST("/refresh", handler.Refresh)
			authGroup.GET("/google/login", handler.GoogleLogin)
			authGroup.GET("/google/callback", handler.GoogleCallback)
		}

		protected := api.Group("")
		protected.Use(authMiddleware(authSvc))
		{
			protected.GET("/auth/profile", handler.Profile)
			protected.POST("/analyses", handler.CreateAnalysis)
			protected.GET("/analyses", handler.ListAnalyses)
			protected.GET("/analyses/quota", handler.GetQuota)
			protected.GET("/analyses/:id", handler.GetAnalysis)
			protected.DELETE("/analyses/:id", handler.DeleteAnalysis)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
