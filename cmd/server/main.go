package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/app"
	"github.com/muhammadworks94/tutorhub/internal/cache"
	"github.com/muhammadworks94/tutorhub/internal/config"
	"github.com/muhammadworks94/tutorhub/internal/events"
	"github.com/muhammadworks94/tutorhub/internal/repository"
	"github.com/muhammadworks94/tutorhub/internal/service"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)

	defer logger.Sync()

	logger.Sugar().Infow("Starting tutorhub engine",
		"environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	var publisher events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewNatsPublisher(cfg.NatsURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
	} else {
		logger.Warn("NATS_URL is empty, events will not be published")
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	changeLogRepo := repository.NewChangeLogRepository(pool)
	availRepo := repository.NewAvailabilityRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	courseLedgerRepo := repository.NewCourseLedgerRepository(pool)
	earningRepo := repository.NewEarningRepository(pool)

	// Сервисы
	memCache := cache.NewMemory()
	cacheTTL := time.Duration(cfg.AvailabilityCacheTTLSec) * time.Second

	ledgerService := service.NewLedgerService(pool, walletRepo, courseLedgerRepo, earningRepo,
		publisher, cfg.Policy.LowCreditThreshold, logger)
	availabilityService := service.NewAvailabilityService(userRepo, availRepo, lessonRepo,
		memCache, cacheTTL, logger)
	lessonService := service.NewLessonService(pool, lessonRepo, changeLogRepo, courseRepo,
		availRepo, ledgerService, availabilityService, publisher, cfg.Policy, logger)

	// Фоновые задачи: напоминания и чистка кеша
	reminderWindow := time.Duration(cfg.ReminderWindowMinutes) * time.Minute
	scheduler := app.NewScheduler(lessonService, memCache, reminderWindow, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Engine started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
}
