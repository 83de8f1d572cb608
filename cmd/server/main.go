package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskline/backend/api/handler"
	"github.com/taskline/backend/engine/occurrence"
	"github.com/taskline/backend/holiday"
	"github.com/taskline/backend/internal/config"
	"github.com/taskline/backend/internal/infrastructure/buffer"
	"github.com/taskline/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskline/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskline/backend/internal/infrastructure/redis"
	"github.com/taskline/backend/internal/middleware"
	"github.com/taskline/backend/internal/router"
	"github.com/taskline/backend/internal/services"
	"github.com/taskline/backend/internal/services/lifecycle"
	"github.com/taskline/backend/pkg/httpcontext"
	"github.com/taskline/backend/pkg/logger"
	"github.com/taskline/backend/repository/postgres"
	redisRepo "github.com/taskline/backend/repository/redis"
	authUC "github.com/taskline/backend/usecase/auth"
	instanceUC "github.com/taskline/backend/usecase/instance"
	profileUC "github.com/taskline/backend/usecase/profile"
	"github.com/taskline/backend/usecase/query"
	taskUC "github.com/taskline/backend/usecase/task"
	templateUC "github.com/taskline/backend/usecase/template"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	retryStore, err := buffer.Open(cfg.Buffer.Path, "instance_retries")
	if err != nil {
		zapLogger.Fatal("failed to open retry store", zap.Error(err))
	}
	manager.Register("retry_store", func(ctx context.Context) error {
		return retryStore.Close()
	})

	mon := monitor.New(pool, redisClient, retryStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	instanceRepo := postgres.NewInstanceRepository(pool)
	holidayRepo := postgres.NewHolidayRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, 24*time.Hour)

	// Public calendar: static rules, cached per month in Redis, memoized in
	// process for the expansion hot path.
	publicHolidays := holiday.Memoize(
		redisRepo.NewHolidayCache(redisClient, holiday.NewUS(), cfg.Holiday.CacheTTL, zapLogger))

	reconciler := services.NewReconciler(
		templateRepo,
		instanceRepo,
		holidayRepo,
		publicHolidays,
		retryStore,
		mon,
		zapLogger,
		services.ReconcilerConfig{
			Interval:    cfg.Reconciler.Interval,
			HorizonDays: cfg.Reconciler.HorizonDays,
			BatchSize:   cfg.Reconciler.BatchSize,
			MaxRetries:  cfg.Buffer.MaxRetry,
			Retention:   time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	reconciler.Start()
	manager.Register("reconciler", func(ctx context.Context) error {
		reconciler.Stop(ctx)
		return nil
	})

	resolver := occurrence.NewResolver(occurrence.Policy{IncludeOverdue: true}, zapLogger)

	authUseCase := authUC.New(userRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	profileUseCase := profileUC.New(userRepo, groupRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, zapLogger)
	templateUseCase := templateUC.New(templateRepo, holidayRepo, publicHolidays, zapLogger)
	instanceUseCase := instanceUC.New(instanceRepo, zapLogger)
	queryService := query.New(taskRepo, templateRepo, instanceRepo, resolver, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, time.Hour),
		Profile:  apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Template: apiHandler.NewTemplateHandler(templateUseCase, ctxAdapter, zapLogger),
		Instance: apiHandler.NewInstanceHandler(instanceUseCase, templateUseCase, reconciler, ctxAdapter, zapLogger),
		View:     apiHandler.NewViewHandler(queryService, ctxAdapter, zapLogger),
		Holiday:  apiHandler.NewHolidayHandler(holidayRepo, publicHolidays, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
