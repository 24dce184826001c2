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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tmopt/timetable-api/api/swagger"
	"github.com/tmopt/timetable-api/internal/handler"
	"github.com/tmopt/timetable-api/internal/middleware"
	"github.com/tmopt/timetable-api/internal/repository"
	"github.com/tmopt/timetable-api/internal/service"
	"github.com/tmopt/timetable-api/pkg/cache"
	"github.com/tmopt/timetable-api/pkg/config"
	"github.com/tmopt/timetable-api/pkg/database"
	"github.com/tmopt/timetable-api/pkg/jobs"
	"github.com/tmopt/timetable-api/pkg/logger"
	corsmiddleware "github.com/tmopt/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tmopt/timetable-api/pkg/middleware/requestid"
)

// @title Timetable Optimization API
// @version 0.1.0
// @description Heuristic timetable optimization and slot suggestion service
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Suggestions.CacheTTL, logr, redisClient != nil)

	subjectRepo := repository.NewSubjectRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	slotSvc := service.NewTimeSlotService(slotRepo, validate, logr)
	constraintSvc := service.NewConstraintService(constraintRepo, validate, logr)
	preferenceSvc := service.NewPreferenceService(preferenceRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, slotRepo, subjectRepo, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, validate, logr)

	optimizationSvc := service.NewOptimizationService(
		subjectRepo, slotRepo, constraintRepo, preferenceRepo, timetableRepo,
		cacheSvc, metricsSvc, validate, logr,
		service.OptimizationConfig{
			Timeout:      cfg.Optimizer.Timeout,
			RunStatusTTL: cfg.Optimizer.RunStatusTTL,
		},
	)

	suggestionSvc := service.NewSuggestionService(
		subjectRepo, slotRepo, timetableRepo, preferenceRepo,
		cacheSvc, cfg.Suggestions.CacheTTL, validate, logr,
	)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(timetableRepo, subjectRepo, slotRepo, logr, nil, nil)
	}

	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	optimizationSvc.AttachQueue(queueCtx, jobs.QueueConfig{
		Workers:    cfg.Optimizer.WorkerConcurrency,
		MaxRetries: cfg.Optimizer.WorkerRetries,
		Logger:     logr,
	})
	defer optimizationSvc.StopQueue()

	router := buildRouter(cfg, logr, metricsSvc, routerHandlers{
		subjects:    handler.NewSubjectHandler(subjectSvc),
		slots:       handler.NewTimeSlotHandler(slotSvc),
		constraints: handler.NewConstraintHandler(constraintSvc),
		preferences: handler.NewPreferenceHandler(preferenceSvc),
		timetables:  handler.NewTimetableHandler(timetableSvc, optimizationSvc, exportSvc, suggestionSvc),
		suggestions: handler.NewSuggestionHandler(suggestionSvc),
		feedback:    handler.NewFeedbackHandler(feedbackSvc),
		metrics:     handler.NewMetricsHandler(metricsSvc),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routerHandlers struct {
	subjects    *handler.SubjectHandler
	slots       *handler.TimeSlotHandler
	constraints *handler.ConstraintHandler
	preferences *handler.PreferenceHandler
	timetables  *handler.TimetableHandler
	suggestions *handler.SuggestionHandler
	feedback    *handler.FeedbackHandler
	metrics     *handler.MetricsHandler
}

func buildRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h routerHandlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)
	r.GET("/stats", h.metrics.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	subjects := api.Group("/subjects")
	subjects.GET("", h.subjects.List)
	subjects.POST("", h.subjects.Create)
	subjects.GET("/:id", h.subjects.Get)
	subjects.PUT("/:id", h.subjects.Update)
	subjects.DELETE("/:id", h.subjects.Delete)

	slots := api.Group("/time-slots")
	slots.GET("", h.slots.List)
	slots.POST("", h.slots.Create)
	slots.GET("/:id", h.slots.Get)
	slots.PUT("/:id", h.slots.Update)
	slots.DELETE("/:id", h.slots.Delete)

	constraints := api.Group("/constraints")
	constraints.GET("", h.constraints.List)
	constraints.POST("", h.constraints.Create)
	constraints.GET("/:id", h.constraints.Get)
	constraints.PUT("/:id", h.constraints.Update)
	constraints.PATCH("/:id/active", h.constraints.SetActive)
	constraints.DELETE("/:id", h.constraints.Delete)

	api.GET("/preferences", h.preferences.Get)
	api.PUT("/preferences", h.preferences.Save)

	timetables := api.Group("/timetables")
	timetables.GET("", h.timetables.List)
	timetables.POST("", h.timetables.Create)
	timetables.GET("/active", h.timetables.GetActive)
	timetables.GET("/:id", h.timetables.Get)
	timetables.PUT("/:id", h.timetables.Update)
	timetables.PATCH("/:id/status", h.timetables.Transition)
	timetables.DELETE("/:id", h.timetables.Delete)
	timetables.GET("/:id/entries", h.timetables.ListEntries)
	timetables.POST("/:id/entries", h.timetables.AddEntry)
	timetables.DELETE("/:id/entries/:entryId", h.timetables.RemoveEntry)
	timetables.POST("/:id/optimize", h.timetables.Optimize)
	timetables.GET("/:id/export", h.timetables.Export)

	api.GET("/optimizations/:runId", h.timetables.RunStatus)

	api.POST("/suggestions", h.suggestions.Suggest)
	api.POST("/suggestions/score", h.suggestions.ScoreSlot)

	api.POST("/feedback", h.feedback.Record)
	api.GET("/feedback/:subjectId", h.feedback.ListBySubject)

	return r
}
