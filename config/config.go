package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// DefaultMaxUploadSize is the Telegram upload ceiling for a single media file (50 MiB)
const DefaultMaxUploadSize = 50 * 1024 * 1024

// Config holds all configuration for the downloader bot
type Config struct {
	Telegram TelegramConfig
	Download DownloadConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
}

// DownloadConfig holds download pipeline configuration
type DownloadConfig struct {
	TempDir       string
	MaxUploadSize int64
	FFmpegPath    string
	YtDlpPath     string
	MirrorAPIURL  string
}

// RedisConfig holds optional Redis backing for the pending-selection store.
// The in-memory store is used when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds optional Kafka configuration for download events.
// Events are disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Download *DownloadConfig
	Redis    *RedisConfig
	Kafka    *KafkaConfig
	Logging  *LoggingConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Download: &cfg.Download,
		Redis:    &cfg.Redis,
		Kafka:    &cfg.Kafka,
		Logging:  &cfg.Logging,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		},
		Download: DownloadConfig{
			TempDir:       getEnv("TEMP_DOWNLOAD_DIR", "./downloads"),
			MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
			FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
			YtDlpPath:     getEnv("YTDLP_PATH", "yt-dlp"),
			MirrorAPIURL:  getEnv("MIRROR_API_URL", "https://api.cobalt.tools/api/json"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvInt64("REDIS_DB", 0)),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Download.TempDir == "" {
		return fmt.Errorf("TEMP_DOWNLOAD_DIR must not be empty")
	}

	if c.Download.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt64 gets an integer environment variable with default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
