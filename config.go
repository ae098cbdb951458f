package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	StaticDir   string
	AppURL      string
	LogLevel    slog.Level
	CORSOrigins []string

	SessionSecret      string
	SessionIdleTimeout time.Duration
	PasswordResetTTL   time.Duration
	AuthRatePerMinute  int

	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailSenderAddress string
	MailSenderName    string
}

// loadConfig reads .env (if present) and then the process environment.
func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("could not load .env file: %w", err)
	}

	cfg := Config{
		Port:              getEnv("PORT", "8084"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StaticDir:         getEnv("STATIC_DIR", "./static"),
		AppURL:            strings.TrimRight(getEnv("APP_URL", "http://localhost:8084"), "/"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUsername:      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailSenderAddress: getEnv("MAIL_SENDER_ADDRESS", "no-reply@smart-osh.local"),
		MailSenderName:    getEnv("MAIL_SENDER_NAME", "SMART OSH"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("POSTGRES_HOST", "localhost"),
			getEnv("POSTGRES_PORT", "5432"),
			getEnv("POSTGRES_USER", "postgres"),
			os.Getenv("POSTGRES_PASSWORD"),
			getEnv("POSTGRES_DB", "smart_osh"),
			getEnv("POSTGRES_SSLMODE", "disable"))
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdleTimeout, err = getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PasswordResetTTL, err = getDuration("PASSWORD_RESET_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AuthRatePerMinute, err = getInt("AUTH_RATE_PER_MINUTE", 10); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
