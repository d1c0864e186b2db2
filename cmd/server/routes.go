package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"user-directory.backend/internal/interfaces/http/handlers"
	"user-directory.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	userHandler         *handlers.UserHandler
	authHandler         *handlers.AuthHandler
	systemHandler       *handlers.SystemHandler
	metrics             *middleware.Metrics
	authMiddleware      gin.HandlerFunc
	basicAuthMiddleware gin.HandlerFunc
	idempotency         gin.HandlerFunc
	rateLimit           gin.HandlerFunc
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	if d.metrics != nil {
		r.Use(d.metrics.Middleware())
	}

	applyCORSMiddleware(r)
	registerSystemRoutes(r, d)
	registerAPIV1Routes(r, d)
	registerLegacyRoutes(r, d)
	return r
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerSystemRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/health", d.systemHandler.Health)
	if d.metrics != nil {
		r.GET("/metrics", gin.WrapH(d.metrics.Handler()))
	}
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	v1.Use(d.rateLimit)
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", d.basicAuthMiddleware, d.authHandler.IssueToken)
		}

		users := v1.Group("/users")
		users.Use(d.authMiddleware)
		{
			users.POST("", d.idempotency, d.userHandler.CreateUser)
			users.GET("/:id", d.userHandler.GetUser)
			users.PATCH("/:id", d.userHandler.UpdateUser)
		}
	}
}

// registerLegacyRoutes keeps the paths older clients use
func registerLegacyRoutes(r *gin.Engine, d routeDeps) {
	legacy := r.Group("")
	legacy.Use(d.rateLimit, d.authMiddleware)
	{
		legacy.GET("/", d.systemHandler.Home)
		legacy.GET("/home", d.systemHandler.Home)
		legacy.GET("/shutdown", d.systemHandler.Shutdown)
		legacy.POST("/shutdown", d.systemHandler.Shutdown)

		legacy.POST("/add_user", d.idempotency, d.userHandler.CreateUser)
		legacy.GET("/get_user_info/:id", d.userHandler.GetUser)
		legacy.POST("/edit_user_info/:id", d.userHandler.UpdateUser)
	}
}
