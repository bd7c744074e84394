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

	"github.com/campusops/meetgen-api/internal/handler"
	internalmiddleware "github.com/campusops/meetgen-api/internal/middleware"
	"github.com/campusops/meetgen-api/internal/repository"
	"github.com/campusops/meetgen-api/internal/service"
	"github.com/campusops/meetgen-api/pkg/cache"
	"github.com/campusops/meetgen-api/pkg/config"
	"github.com/campusops/meetgen-api/pkg/database"
	"github.com/campusops/meetgen-api/pkg/logger"
	corsmiddleware "github.com/campusops/meetgen-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/meetgen-api/pkg/middleware/requestid"
)

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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	offeringRepo := repository.NewOfferingRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	ruleRepo := repository.NewConflictRuleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	classRepo := repository.NewClassGroupRepository(db)

	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(cfg.JWT, logr)

	var conflictCache interface {
		Get(ctx context.Context, key string, dest interface{}) error
		Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
		DeleteByPattern(ctx context.Context, pattern string) error
	}
	if cacheRepo != nil {
		conflictCache = cacheRepo
	}

	conflictService := service.NewConflictService(
		meetingRepo,
		conflictRepo,
		ruleRepo,
		courseRepo,
		offeringRepo,
		roomRepo,
		classRepo,
		conflictCache,
		metricsService,
		nil,
		logr,
		service.ConflictServiceConfig{
			MinGapMinutes:   cfg.Engine.MinGapMinutes,
			SummaryCacheTTL: cfg.Engine.SummaryCacheTTL,
		},
	)

	scanQueue := service.NewScanQueue(conflictService, service.ScanQueueConfig{
		Workers:    cfg.Engine.ScanWorkers,
		BufferSize: cfg.Engine.ScanQueueSize,
		MaxRetries: cfg.Engine.ScanRetries,
		RetryDelay: 2 * time.Second,
	}, logr)
	conflictService.SetQueue(scanQueue)

	var cacheInvalidator interface {
		DeleteByPattern(ctx context.Context, pattern string) error
	}
	if cacheRepo != nil {
		cacheInvalidator = cacheRepo
	}

	generationService := service.NewGenerationService(
		offeringRepo,
		meetingRepo,
		roomRepo,
		lecturerRepo,
		classRepo,
		db,
		cacheInvalidator,
		conflictService,
		metricsService,
		nil,
		logr,
		service.GenerationServiceConfig{BatchGeneration: cfg.Engine.BatchGeneration},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanQueue.Start(ctx)
	defer scanQueue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	generationHandler := handler.NewGenerationHandler(generationService)
	conflictHandler := handler.NewConflictHandler(conflictService)
	handler.RegisterRoutes(r, authService, generationHandler, conflictHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
