package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/auth"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// CORS answers preflight requests for the browser client.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// NewRouter wires every route of the API.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.Logger), CORS())

	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)
		api.GET("/health", h.Health)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
	}

	authed := api.Group("", auth.Middleware(h.Auth))
	{
		authed.GET("/me", h.Me)
		authed.GET("/instructors", h.GetInstructors)
		authed.GET("/sessions", h.GetSessions)
		authed.GET("/sessions/:id", h.GetSessionByID)
		authed.GET("/calendar", h.GetCalendar)
		authed.GET("/ws", h.ServeWS)
	}

	parent := authed.Group("", auth.RequireRole(models.RoleParent))
	{
		parent.POST("/sessions/:id/register", h.Register)
		parent.POST("/sessions/:id/cancel", h.Cancel)
		parent.GET("/profile", h.GetProfile)
	}

	admin := authed.Group("/admin", auth.RequireRole(models.RoleAdmin))
	{
		admin.GET("/sessions", h.GetSessions)
		admin.POST("/sessions", h.CreateSession)
		admin.GET("/instructors/available", h.GetAvailableInstructors)
		admin.PUT("/sessions/:id/instructor", h.AssignInstructor)
		admin.POST("/sessions/:id/instructor/move", h.MoveInstructor)
		admin.DELETE("/sessions/:id/instructor", h.RemoveInstructor)
		admin.POST("/import/sessions", h.ImportSessions)
		admin.GET("/export", h.ExportMonth)
		admin.GET("/conflicts", h.GetConflicts)
	}

	return router
}
