// Package main runs the ad campaign HTTP API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adcampaign/backend/config"
	"github.com/adcampaign/backend/internal/auth"
	"github.com/adcampaign/backend/internal/campaigns"
	"github.com/adcampaign/backend/internal/emaillogs"
	"github.com/adcampaign/backend/internal/mailer"
	"github.com/adcampaign/backend/internal/middleware"
	"github.com/adcampaign/backend/pkg/database"
	"github.com/adcampaign/backend/pkg/queue"
	"github.com/adcampaign/backend/pkg/redis"
	"github.com/adcampaign/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Required roles and the default admin account must exist before traffic.
	if err := auth.Bootstrap(ctx, authRepo, logger, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}

	// Campaigns
	smtp := mailer.New(cfg.Email, logger)
	if cfg.Email.SMTPHost == "" {
		logger.Warn("smtp not configured; campaign notifications will be recorded as failed")
	}
	emailLogRepo := emaillogs.NewRepository(pool)
	campaignRepo := campaigns.NewRepository(pool)
	campaignSvc := campaigns.NewService(campaignRepo, smtp, emailLogRepo, logger, cfg.Email.AdminAddress)
	campaignHandler := campaigns.NewHandler(campaignSvc, logger)

	// Email logs (audit trail + resend through the worker queue)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public campaign surface: listing, the ROI view, and anonymous
	// impression/click tracking.
	router.GET("/campaigns", campaignHandler.ListAll)
	router.GET("/campaigns/:id", campaignHandler.Get)
	router.POST("/campaigns/:id/impression", campaignHandler.RecordImpression)
	router.POST("/campaigns/:id/click", campaignHandler.RecordClick)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		api.GET("/campaigns/my", campaignHandler.ListMine)
		api.POST("/campaigns", campaignHandler.Create)
		api.PUT("/campaigns/:id", campaignHandler.Update)
		api.DELETE("/campaigns/:id", campaignHandler.Delete)

		api.GET("/campaigns/:id/emails", campaigns.RequireCampaignAccess(campaignRepo), emailLogHandler.ListByCampaign)
		api.POST("/campaigns/:id/emails/resend", campaigns.RequireCampaignAccess(campaignRepo), emailLogHandler.Resend)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
