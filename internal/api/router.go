package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inviteforge/inviteforge/internal/app"
	iauth "github.com/inviteforge/inviteforge/internal/auth"
	"github.com/inviteforge/inviteforge/internal/handlers"
	"github.com/inviteforge/inviteforge/internal/middleware"
	"github.com/inviteforge/inviteforge/internal/services"
	"github.com/inviteforge/inviteforge/internal/storage"
)

// Dependencies carries the constructed services the router wires to routes.
type Dependencies struct {
	JWT       *iauth.JWTService
	Users     *services.UserService
	Templates *services.TemplateService
	Invites   *services.InviteService
	Stats     *services.StatsService
	Files     storage.FileStore
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Users == nil || deps.Templates == nil || deps.Invites == nil || deps.Stats == nil {
		return nil, fmt.Errorf("all services must be provided")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file store must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(cfg.Security.MaxBodyBytes))
	if cfg.Security.RequestScanning {
		r.Use(middleware.RequestScanner())
	}
	r.Use(middleware.RateLimit(deps.RateStore, cfg.Security.RateLimitPerMinute, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	// Public surface
	r.GET("/health", handlers.Health())
	if cfg.Monitoring.Prometheus.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, cfg.Auth.Local.AllowRegistration)
	templatesHandler := handlers.NewTemplatesHandler(deps.Templates)
	generateHandler := handlers.NewGenerateHandler(deps.Invites, deps.Templates)
	invitesHandler := handlers.NewInvitesHandler(deps.Invites)
	uploadsHandler := handlers.NewUploadsHandler()
	imagesHandler := handlers.NewImagesHandler(deps.Files)
	statsHandler := handlers.NewStatsHandler(deps.Stats)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Rendered images are public; URLs carry unguessable suffixes
	r.GET("/api/images/:filename", imagesHandler.Serve)

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	templates := api.Group("/templates")
	{
		templates.GET("", templatesHandler.List)
		templates.POST("", templatesHandler.Create)
		templates.GET("/:id", templatesHandler.Get)
		templates.PUT("/:id", templatesHandler.Update)
		templates.DELETE("/:id", templatesHandler.Delete)
		templates.POST("/:id/bulk-generate", generateHandler.BulkGenerate)
		templates.GET("/:id/generated", invitesHandler.ListByTemplate)
	}

	api.POST("/generate/:templateId", generateHandler.Generate)
	api.POST("/upload", uploadsHandler.Upload)

	generated := api.Group("/generated")
	{
		generated.GET("/:id", invitesHandler.Get)
		generated.GET("/:id/qr", invitesHandler.QRCode)
	}

	api.GET("/stats", middleware.RequireAdmin(), statsHandler.Overview)

	return r, nil
}
