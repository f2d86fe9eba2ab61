package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/calderhq/rota-api/api/swagger"
	"github.com/calderhq/rota-api/internal/handler"
	"github.com/calderhq/rota-api/internal/middleware"
	"github.com/calderhq/rota-api/internal/repository"
	"github.com/calderhq/rota-api/internal/service"
	"github.com/calderhq/rota-api/pkg/cache"
	"github.com/calderhq/rota-api/pkg/config"
	"github.com/calderhq/rota-api/pkg/database"
	"github.com/calderhq/rota-api/pkg/jobs"
	"github.com/calderhq/rota-api/pkg/logger"
	corsmiddleware "github.com/calderhq/rota-api/pkg/middleware/cors"
	reqidmiddleware "github.com/calderhq/rota-api/pkg/middleware/requestid"
)

// @title Rota API
// @version 1.0.0
// @description Weekly staff shift scheduling: drafts, publishing, conflicts and reconciliation
// @BasePath /
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

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid schedule timezone", "timezone", cfg.Schedule.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Roster.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, roster cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, cfg.Roster.CacheEnabled && cacheRepo != nil)

	shiftRepo := repository.NewShiftRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	timeOffRepo := repository.NewTimeOffRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)

	rosterSvc := service.NewRosterService(shiftRepo, employeeRepo, timeOffRepo, availabilityRepo, cacheSvc, loc, cfg.Schedule.Timezone, logr)
	reconcileSvc := service.NewReconcileService(shiftRepo, timeOffRepo, rosterSvc, metricsSvc, loc, cfg.Reconciler.Interval, jobs.QueueConfig{
		Workers:    cfg.Reconciler.Workers,
		MaxRetries: cfg.Reconciler.MaxRetries,
		Logger:     logr,
	}, logr)
	shiftSvc := service.NewShiftService(shiftRepo, employeeRepo, timeOffRepo, availabilityRepo, rosterSvc, reconcileSvc, loc, validate, logr)
	publishSvc := service.NewPublishService(shiftRepo, employeeRepo, timeOffRepo, rosterSvc, metricsSvc, loc, logr)
	timeOffSvc := service.NewTimeOffService(timeOffRepo, employeeRepo, rosterSvc, reconcileSvc, loc, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, employeeRepo, rosterSvc, loc, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, logr)
	exportSvc := service.NewExportService(rosterSvc, loc, logr)

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

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Deps{
		Roster:        handler.NewRosterHandler(rosterSvc, loc),
		Shifts:        handler.NewShiftHandler(shiftSvc),
		Publish:       handler.NewPublishHandler(publishSvc, shiftSvc, loc),
		Reconcile:     handler.NewReconcileHandler(reconcileSvc),
		Employees:     handler.NewEmployeeHandler(employeeSvc),
		TimeOffs:      handler.NewTimeOffHandler(timeOffSvc, loc),
		Availability:  handler.NewAvailabilityHandler(availabilitySvc, loc),
		Export:        handler.NewExportHandler(exportSvc, loc),
		ExportEnabled: cfg.Export.Enabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reconciler.Enabled {
		go reconcileSvc.Run(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Schedule.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
