package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/aims-edu/portal-api/api/swagger"
	"github.com/aims-edu/portal-api/internal/guard"
	"github.com/aims-edu/portal-api/internal/handler"
	"github.com/aims-edu/portal-api/internal/middleware"
	"github.com/aims-edu/portal-api/internal/repository"
	"github.com/aims-edu/portal-api/internal/service"
	"github.com/aims-edu/portal-api/pkg/cache"
	"github.com/aims-edu/portal-api/pkg/captcha"
	"github.com/aims-edu/portal-api/pkg/config"
	"github.com/aims-edu/portal-api/pkg/database"
	"github.com/aims-edu/portal-api/pkg/logger"
	"github.com/aims-edu/portal-api/pkg/mailer"
	corsmiddleware "github.com/aims-edu/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aims-edu/portal-api/pkg/middleware/requestid"
	"github.com/aims-edu/portal-api/pkg/storage"
)

// @title AIMS Portal API
// @version 1.0.0
// @description Access ledger and study material portal for the institute.
// @BasePath /api/v1
// @schemes http https

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
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		sugar.Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Listings fall back to the database when redis is down.
		sugar.Warnw("redis unavailable, document listing cache disabled", "error", err)
		redisClient = nil
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		sugar.Fatalw("failed to init blob storage", "error", err)
	}

	var sender mailer.Sender = mailer.NopSender{}
	if cfg.Mail.Enabled {
		sender = mailer.NewResendClient(cfg.Mail)
	}

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	requestRepo := repository.NewAccessRequestRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	notifySvc := service.NewNotificationService(sender, metricsSvc, logr, cfg.Mail, cfg.Notifications)
	notifySvc.Start(ctx)
	defer notifySvc.Stop()

	authSvc := service.NewAuthService(accountRepo, auditRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	verifier := captcha.NewHCaptchaVerifier(cfg.Captcha)

	ledgerSvc := service.NewLedgerService(requestRepo, accountRepo, auditRepo, notifySvc, verifier, metricsSvc, validate, logr, cfg.Access)

	documentSvc := service.NewDocumentService(documentRepo, cacheRepo, blobs, auditRepo, metricsSvc, logr, cfg.Uploads, cfg.Access, cfg.Cache, cfg.APIPrefix)

	accessGuard := guard.New(accountRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	accessHandler := handler.NewAccessHandler(ledgerSvc)
	adminHandler := handler.NewAdminHandler(ledgerSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, cfg.Uploads.MaxFileSizeBytes)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requestLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestAccessLimit, cfg.RateLimit.RequestAccessWindow)
	statusLimiter := middleware.NewRateLimiter(cfg.RateLimit.StatusCheckLimit, cfg.RateLimit.StatusCheckWindow)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Authenticate(authSvc))

	public := api.Group("")
	public.Use(middleware.Authorize(accessGuard, guard.RoutePublic))
	{
		public.POST("/access/requests", middleware.RateLimit(requestLimiter), accessHandler.SubmitRequest)
		public.GET("/access/status", middleware.RateLimit(statusLimiter), accessHandler.CheckStatus)
		public.POST("/auth/signup", authHandler.Signup)
		public.POST("/auth/login", authHandler.Login)
		// Fetch is possession-based: document ids are unguessable UUIDs
		// and listings stay role-scoped.
		public.GET("/documents/:id/file", documentHandler.Download)
	}

	student := api.Group("")
	student.Use(middleware.Authorize(accessGuard, guard.RouteStudent))
	{
		student.GET("/documents", documentHandler.ListMine)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Authorize(accessGuard, guard.RouteAdmin))
	{
		admin.GET("/requests", adminHandler.ListRequests)
		admin.POST("/requests/:email/approve", adminHandler.ApproveRequest)
		admin.POST("/requests/:email/reject", adminHandler.RejectRequest)
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/export", adminHandler.ExportUsers)
		admin.PATCH("/users/:email", adminHandler.UpdateUser)
		admin.POST("/users/:email/revoke", adminHandler.RevokeUser)
		admin.POST("/users/:email/restore", adminHandler.RestoreUser)
		admin.GET("/documents", documentHandler.ListAll)
		admin.POST("/documents", documentHandler.Upload)
		admin.DELETE("/documents/:id", documentHandler.Delete)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
