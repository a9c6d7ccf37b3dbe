package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/orgbridge/bulletin-api/api/swagger"
	"github.com/orgbridge/bulletin-api/internal/handler"
	"github.com/orgbridge/bulletin-api/internal/middleware"
	"github.com/orgbridge/bulletin-api/internal/repository"
	"github.com/orgbridge/bulletin-api/internal/service"
	"github.com/orgbridge/bulletin-api/pkg/cache"
	"github.com/orgbridge/bulletin-api/pkg/config"
	"github.com/orgbridge/bulletin-api/pkg/database"
	"github.com/orgbridge/bulletin-api/pkg/logger"
	"github.com/orgbridge/bulletin-api/pkg/mailer"
	corsmiddleware "github.com/orgbridge/bulletin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/orgbridge/bulletin-api/pkg/middleware/requestid"
	"github.com/orgbridge/bulletin-api/pkg/storage"
)

// @title Bulletin API
// @version 1.0.0
// @description Announcement publishing with email notification fan-out
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	store, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object storage", "error", err)
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	validate := validator.New()

	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	notificationSvc := service.NewNotificationService(userRepo, smtpMailer, store, metricsSvc, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, groupRepo, store, notificationSvc, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "bulletin-api",
	})

	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/announcements", announcementHandler.List)

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		authed.POST("/announcements", announcementHandler.Create)
		authed.POST("/announcements/group/:groupId", announcementHandler.CreateForGroup)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
