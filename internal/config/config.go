package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App     AppConfig
	Bot     BotConfig
	Backend BackendConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Logger  LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name         string
	Env          string
	Host         string
	Port         string
	Version      string
	PublicDomain string
}

// BotConfig holds messaging-provider credentials.
type BotConfig struct {
	Token      string
	APIBaseURL string
}

// BackendConfig holds storage-backend connection values.
type BackendConfig struct {
	BaseURL             string
	APIKey              string
	LegacyUploadEnabled bool
}

// RedisConfig holds optional Redis connection values. An empty Addr disables
// the shared dedup store and the in-memory one is used instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig sizes the in-process stores.
type CacheConfig struct {
	DedupCapacity      int
	TokenCacheCapacity int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible. A missing bot token is a fatal startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:         getEnv("APP_NAME", "filedrop-bot"),
			Env:          getEnv("APP_ENV", "development"),
			Host:         getEnv("APP_HOST", "0.0.0.0"),
			Port:         getEnv("APP_PORT", "8080"),
			Version:      getEnv("APP_VERSION", "dev"),
			PublicDomain: getEnv("PUBLIC_DOMAIN", ""),
		},
		Bot: BotConfig{
			Token:      botToken,
			APIBaseURL: getEnv("BOT_API_BASE_URL", "https://api.telegram.org"),
		},
		Backend: BackendConfig{
			BaseURL:             getEnv("BACKEND_BASE_URL", "http://127.0.0.1:3000"),
			APIKey:              os.Getenv("BACKEND_API_KEY"),
			LegacyUploadEnabled: getEnvAsBool("LEGACY_UPLOAD_ENABLED", false),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			DedupCapacity:      getEnvAsInt("DEDUP_CAPACITY", 1000),
			TokenCacheCapacity: getEnvAsInt("TOKEN_CACHE_CAPACITY", 1024),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
