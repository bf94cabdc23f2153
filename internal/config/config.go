package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDBPath = "/root/data/bot.db"
	secretPath    = "/run/secrets/telegram_bot_token"
)

var ErrNoToken = errors.New("telegram token not found: neither docker secret nor TELEGRAM_BOT_TOKEN is set")

type Config struct {
	DBPath        string
	TelegramToken string
	// TickInterval drives zone announcements and live status edits.
	TickInterval time.Duration
	Location     *time.Location
	LogLevel     slog.Level
	LogFormat    string // "text" | "json"
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DBPath:        getEnv("DB_PATH", DefaultDBPath),
		TelegramToken: getBotToken(secretPath),
		TickInterval:  time.Minute,
		Location:      time.Local,
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if v := getEnv("TICK_INTERVAL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("TICK_INTERVAL: %w", err)
		}
		cfg.TickInterval = d
	}
	if v := getEnv("TZ_DISPLAY", ""); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return cfg, fmt.Errorf("TZ_DISPLAY: %w", err)
		}
		cfg.Location = loc
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.TickInterval < time.Second {
		return fmt.Errorf("TICK_INTERVAL must be at least 1s, got %s", c.TickInterval)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// RequireToken is checked only by commands that talk to telegram.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrNoToken
	}
	return nil
}

func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getBotToken(secret string) string {
	if data, err := os.ReadFile(secret); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}
