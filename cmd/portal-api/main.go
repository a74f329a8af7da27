package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-portal-api/api/swagger"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/router"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/cache"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/logger"
)

// @title School Portal API
// @version 1.0.0
// @description Academic period registry, role-resolving login and upload-deadline gate
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Period.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, current period cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	validate := validator.New()

	yearRepo := repository.NewAcademicYearRepository(db)
	termRepo := repository.NewAcademicTermRepository(db)
	deadlineRepo := repository.NewUploadDeadlineRepository(db)
	identityRepo := repository.NewIdentityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Period.CacheTTL, logr, redisClient != nil)
	yearSvc := service.NewAcademicYearService(yearRepo, cacheSvc, metrics, validate, logr)
	termSvc := service.NewAcademicTermService(termRepo, cacheSvc, metrics, validate, logr)
	periodSvc := service.NewPeriodService(yearRepo, termRepo, cacheSvc, cfg.Period.CacheTTL, logr)
	deadlineSvc := service.NewDeadlineService(deadlineRepo, periodSvc, metrics, validate, logr, cfg.Deadlines.WarningWindow)

	chain, err := service.NewVerifierChain(cfg.Auth.LegacyVerifiers)
	if err != nil {
		logr.Fatal("invalid credential verifier configuration", zap.Error(err))
	}
	if cfg.Admin.BreakGlassEnabled {
		logr.Warn("break-glass admin login is enabled", zap.String("username", cfg.Admin.Username))
	}
	resolver := service.NewCredentialResolver(logr,
		service.NewBreakGlassProvider(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.BreakGlassEnabled),
		service.NewTeacherProvider(identityRepo, chain, logr),
		service.NewStudentProvider(identityRepo, chain, logr),
	)
	authSvc := service.NewAuthService(resolver, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         authSvc,
		Gate:           deadlineSvc,
		Auth:           handler.NewAuthHandler(authSvc),
		AcademicYears:  handler.NewAcademicYearHandler(yearSvc),
		AcademicTerms:  handler.NewAcademicTermHandler(termSvc),
		Period:         handler.NewPeriodHandler(periodSvc),
		Deadlines:      handler.NewDeadlineHandler(deadlineSvc),
		Ops:            handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
