package handler

import (
	"net/http"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/limiter"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// StatusReporter is implemented by background jobs that expose their state
// on /scheduler/status.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

// Deps is everything the router needs. Limiter, Scheduler and Google may be
// nil.
type Deps struct {
	Store       *store.Store
	Sessions    *session.Manager
	Notifier    *Notifier
	Limiter     *limiter.Limiter
	Scheduler   StatusReporter
	Google      *oauth2.Config
	JWTSecret   string
	FrontendURL string
}

func NewRouter(d Deps) *gin.Engine {
	authHandler := NewAuthHandler(d.Store, d.Sessions, d.Notifier, d.JWTSecret, d.Google, d.FrontendURL)
	reportHandler := NewReportHandler(d.Store, d.Notifier)
	adminHandler := NewAdminHandler(d.Store, d.Sessions)
	catalogHandler := NewCatalogHandler(d.Store)
	exportHandler := NewExportHandler(d.Store)
	notificationHandler := NewNotificationHandler()
	sessionHandler := NewSessionHandler()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Scheduler status
	r.GET("/scheduler/status", func(c *gin.Context) {
		if d.Scheduler != nil {
			c.JSON(http.StatusOK, d.Scheduler.GetStatus())
		} else {
			c.JSON(http.StatusOK, gin.H{"enabled": false, "message": "Scheduler is disabled"})
		}
	})

	requireAuth := middleware.AuthMiddleware(d.JWTSecret, d.Sessions)
	can := middleware.RequireAction

	api := r.Group("/api")
	{
		// Public
		api.POST("/auth/register", middleware.RateLimit(d.Limiter, limiter.ActionRegister), authHandler.Register)
		api.POST("/auth/login", middleware.RateLimit(d.Limiter, limiter.ActionLogin), authHandler.Login)
		api.POST("/auth/refresh", authHandler.RefreshToken)
		api.GET("/auth/google", authHandler.GoogleAuth)
		api.GET("/auth/google/callback", authHandler.GoogleCallback)

		api.GET("/stats", adminHandler.GetStats)
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/categories/:name/subcategories", catalogHandler.ListSubcategories)
		api.GET("/departments", catalogHandler.ListDepartments)
		api.GET("/reports/map", reportHandler.Map)
	}

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/session", sessionHandler.Get)
		protected.POST("/session/navigate", sessionHandler.Navigate)
		protected.POST("/session/tab", sessionHandler.SelectTab)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/read-all", notificationHandler.ReadAll)
		protected.GET("/notifications/ws", notificationHandler.Stream)

		protected.POST("/reports", can(auth.ActionSubmitReport),
			middleware.RateLimit(d.Limiter, limiter.ActionSubmitReport), reportHandler.Submit)
		protected.GET("/reports/track", can(auth.ActionTrackReports), reportHandler.Track)
		protected.GET("/reports", can(auth.ActionViewReports), reportHandler.List)
		protected.GET("/reports/:id", reportHandler.Get)
		protected.PUT("/reports/:id", can(auth.ActionUpdateReport), reportHandler.Update)
		protected.PUT("/reports/:id/priority", can(auth.ActionUpdateReport), reportHandler.UpdatePriority)
		protected.DELETE("/reports/:id", can(auth.ActionDeleteReport), reportHandler.Delete)

		protected.POST("/categories", can(auth.ActionManageCategories), catalogHandler.CreateCategory)
		protected.POST("/departments", can(auth.ActionManageCategories), catalogHandler.CreateDepartment)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/dashboard", can(auth.ActionViewDashboard), adminHandler.Dashboard)
		admin.GET("/analytics", can(auth.ActionViewAnalytics), adminHandler.Analytics)
		admin.GET("/settings", can(auth.ActionViewSettings), adminHandler.Settings)

		admin.GET("/users", can(auth.ActionManageUsers), adminHandler.ListUsers)
		admin.POST("/users", can(auth.ActionManageUsers), adminHandler.CreateUser)
		admin.DELETE("/users/:id", can(auth.ActionManageUsers), adminHandler.DeleteUser)

		admin.GET("/backup", can(auth.ActionBackup), exportHandler.Backup)
		admin.GET("/export", can(auth.ActionExport),
			middleware.RateLimit(d.Limiter, limiter.ActionExport), exportHandler.Export)
	}

	return r
}
