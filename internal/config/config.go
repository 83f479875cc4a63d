package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultLookaheadDays = 365
	defaultDBMaxConns    = 10
	defaultHoursStart    = "08:00"
	defaultHoursEnd      = "20:00"
)

type Config struct {
	TelegramToken      string
	DBDSN              string
	Environment        string
	LogLevel           string
	HTTPAddr           string
	LookaheadDays      int
	BusinessHoursStart model.TimeOfDay
	BusinessHoursEnd   model.TimeOfDay
	SubstitutionPolicy model.SubstitutionPolicy
	DBMaxConns         int32

	// EnvFileLoaded true, если значения подхвачены из .env
	EnvFileLoaded bool
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	loaded := godotenv.Load(".env") == nil

	cfg, err := FromLookup(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded

	return cfg, nil
}

// FromLookup собирает конфиг из произвольного источника переменных
func FromLookup(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:              getenv("DB_DSN"),
		TelegramToken:      getenv("TELEGRAM_TOKEN"),
		Environment:        getenv("ENV"),
		LogLevel:           getenv("LOG_LEVEL"),
		HTTPAddr:           getenv("HTTP_ADDR"),
		SubstitutionPolicy: model.SubstitutionPolicy(strings.ToLower(getenv("SUBSTITUTION_POLICY"))),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.SubstitutionPolicy == "" {
		cfg.SubstitutionPolicy = model.SubstitutionDisallow
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if !cfg.SubstitutionPolicy.Valid() {
		return nil, fmt.Errorf("SUBSTITUTION_POLICY must be disallow or root, got %q", cfg.SubstitutionPolicy)
	}

	var err error
	if cfg.LookaheadDays, err = intOr(getenv, "LOOKAHEAD_DAYS", defaultLookaheadDays); err != nil {
		return nil, err
	}
	if cfg.LookaheadDays <= 0 {
		return nil, fmt.Errorf("LOOKAHEAD_DAYS must be positive, got %d", cfg.LookaheadDays)
	}

	maxConns, err := intOr(getenv, "DB_MAX_CONNS", defaultDBMaxConns)
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", maxConns)
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.BusinessHoursStart, err = timeOr(getenv, "BUSINESS_HOURS_START", defaultHoursStart); err != nil {
		return nil, err
	}
	if cfg.BusinessHoursEnd, err = timeOr(getenv, "BUSINESS_HOURS_END", defaultHoursEnd); err != nil {
		return nil, err
	}
	if cfg.BusinessHoursEnd <= cfg.BusinessHoursStart {
		return nil, fmt.Errorf("BUSINESS_HOURS_END (%s) must be after BUSINESS_HOURS_START (%s)",
			cfg.BusinessHoursEnd, cfg.BusinessHoursStart)
	}

	return cfg, nil
}

// BotEnabled бот запускается только при заданном токене
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func timeOr(getenv func(string) string, key, def string) (model.TimeOfDay, error) {
	raw := getenv(key)
	if raw == "" {
		raw = def
	}
	t, err := model.ParseTimeOfDay(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}
