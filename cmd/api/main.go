package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lumina-interiors/consultations-api/api/swagger"
	"github.com/lumina-interiors/consultations-api/internal/handler"
	"github.com/lumina-interiors/consultations-api/internal/middleware"
	"github.com/lumina-interiors/consultations-api/internal/models"
	"github.com/lumina-interiors/consultations-api/internal/repository"
	"github.com/lumina-interiors/consultations-api/internal/service"
	"github.com/lumina-interiors/consultations-api/pkg/cache"
	"github.com/lumina-interiors/consultations-api/pkg/config"
	"github.com/lumina-interiors/consultations-api/pkg/database"
	"github.com/lumina-interiors/consultations-api/pkg/export"
	"github.com/lumina-interiors/consultations-api/pkg/logger"
	corsmiddleware "github.com/lumina-interiors/consultations-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lumina-interiors/consultations-api/pkg/middleware/requestid"
)

// @title Lumina Interiors Consultations API
// @version 1.0.0
// @description Consultation intake and admin workflow for the Lumina Interiors site
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Summary.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lumina-interiors",
	})
	consultationSvc := service.NewConsultationService(consultationRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(consultationRepo, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.MaxRows, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	consultationHandler := handler.NewConsultationHandler(consultationSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	consultations := api.Group("/consultations")
	consultations.POST("/contact", consultationHandler.SubmitContact)
	consultations.POST("/bookings", consultationHandler.SubmitBooking)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/consultations", consultationHandler.List)
	admin.GET("/consultations/summary", consultationHandler.Summary)
	admin.GET("/consultations/export",
		middleware.Audit(userRepo, models.AuditActionExport, "consultations"),
		consultationHandler.Export)
	admin.GET("/consultations/:id", consultationHandler.Get)
	admin.PATCH("/consultations/:id/status",
		middleware.Audit(userRepo, models.AuditActionStatusUpdate, "consultations"),
		consultationHandler.UpdateStatus)
	admin.PATCH("/consultations/:id/notes",
		middleware.Audit(userRepo, models.AuditActionNotesUpdate, "consultations"),
		consultationHandler.UpdateNotes)
	admin.GET("/metrics/snapshot", metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
