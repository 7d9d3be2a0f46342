package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Policy - настраиваемые параметры политики занятий и кредитов
type Policy struct {
	MaxReschedulesPerLesson        int `validate:"gte=0"`
	AdminApprovalWindowHours       int `validate:"gt=0"`
	LateReschedulePenaltyCredits   int `validate:"gte=0"`
	LateCancellationPenaltyCredits int `validate:"gte=0"`
	LateCancellationRefundPercent  int `validate:"gte=0,lte=100"`
	NoShowRefundPercent            int `validate:"gte=0,lte=100"`
	CreditsPerLesson               int `validate:"gt=0"`
	TutorEarningPerLessonCredits   int `validate:"gte=0"`
	LowCreditThreshold             int `validate:"gte=0"`
}

type Config struct {
	DBDSN          string `validate:"required"`
	Environment    string
	NatsURL        string // пустое значение = события не публикуются
	MigrationsPath string

	ReminderWindowMinutes   int `validate:"gt=0"`
	AvailabilityCacheTTLSec int `validate:"gte=0"`

	Policy Policy
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		NatsURL:        os.Getenv("NATS_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		ReminderWindowMinutes:   envInt("REMINDER_WINDOW_MINUTES", 60),
		AvailabilityCacheTTLSec: envInt("AVAILABILITY_CACHE_TTL_SEC", 30),

		Policy: Policy{
			MaxReschedulesPerLesson:        envInt("MAX_RESCHEDULES_PER_LESSON", 2),
			AdminApprovalWindowHours:       envInt("ADMIN_APPROVAL_WINDOW_HOURS", 24),
			LateReschedulePenaltyCredits:   envInt("LATE_RESCHEDULE_PENALTY_CREDITS", 1),
			LateCancellationPenaltyCredits: envInt("LATE_CANCELLATION_PENALTY_CREDITS", 1),
			LateCancellationRefundPercent:  envInt("LATE_CANCELLATION_REFUND_PERCENT", 50),
			NoShowRefundPercent:            envInt("NO_SHOW_REFUND_PERCENT", 0),
			CreditsPerLesson:               envInt("CREDITS_PER_LESSON", 1),
			TutorEarningPerLessonCredits:   envInt("TUTOR_EARNING_PER_LESSON_CREDITS", 1),
			LowCreditThreshold:             envInt("LOW_CREDIT_THRESHOLD", 2),
		},
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	// Вложенная Policy проверяется вместе с корневой структурой
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}
