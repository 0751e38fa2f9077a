package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/database"
	"github.com/classpulse/classpulse-api/internal/feed"
	"github.com/classpulse/classpulse-api/internal/handler"
	"github.com/classpulse/classpulse-api/internal/middleware"
	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
	"github.com/classpulse/classpulse-api/internal/router"
	"github.com/classpulse/classpulse-api/internal/service"
)

func main() {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := autoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
			cache = nil
		}
	}

	summaryRepo := repository.NewSummaryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	workRepo := repository.NewWorkRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)

	parser := feed.NewReportParser(logger)
	reconciler := service.NewReconcileService(db, parser, cfg, logger)
	summaries := service.NewSummaryService(summaryRepo, cache, cfg, logger)
	students := service.NewStudentService(studentRepo, workRepo, logger)
	flags := service.NewFlagService(flagRepo, summaryRepo, logger)

	// The live-feed client needs external credentials. Deployments with
	// classroom access build a feed.ClassroomClient around their authorized
	// API session and wrap it with feed.NewClassroomAdapter here; without one
	// the classroom sync route reports itself unavailable and report imports
	// remain the only ingestion path.
	var classroom *feed.ClassroomAdapter

	app := fiber.New(fiber.Config{AppName: cfg.AppName})
	middleware.Register(app, logger)
	router.Register(app, router.Handlers{
		Health:  handler.NewHealthHandler(cfg),
		Student: handler.NewStudentHandler(students, summaries, flags),
		Teacher: handler.NewTeacherHandler(summaries, flags),
		Sync:    handler.NewSyncHandler(reconciler, summaries, syncLogRepo, classroom, cfg),
	})

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewRepairWorker(summaries, cfg.RepairInterval, cfg.RepairBatchSize, logger)
	go worker.Run(workerCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	logger.Info().Str("address", cfg.HTTPAddress()).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	stopWorker()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if cache != nil {
		_ = cache.Close()
	}
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func connectDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.DatabasePath)
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.School{},
		&models.Course{},
		&models.Student{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.CourseSummary{},
		&models.SyncLog{},
	)
}
