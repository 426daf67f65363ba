package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	RevenueCat RevenueCatConfig
	Push       PushConfig
	Engagement EngagementConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	APISecret    string
	AllowOrigins string
}

type DatabaseConfig struct {
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite only
}

type RevenueCatConfig struct {
	// WebhookSecret is the shared secret the provider sends as a bearer
	// token. Empty disables verification (local development only).
	WebhookSecret string
}

type PushConfig struct {
	Endpoint string
}

type EngagementConfig struct {
	ScanInterval  time.Duration
	InactiveAfter time.Duration
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	scanHours, _ := strconv.Atoi(getEnv("ENGAGEMENT_SCAN_HOURS", "24"))
	inactiveDays, _ := strconv.Atoi(getEnv("ENGAGEMENT_INACTIVE_DAYS", "7"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			APISecret:    getEnv("API_SECRET", "change-me-in-production"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "trophyroom"),
			Password: getEnv("DB_PASSWORD", "trophyroom"),
			Name:     getEnv("DB_NAME", "trophyroom"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "trophyroom.db"),
		},
		RevenueCat: RevenueCatConfig{
			WebhookSecret: getEnv("REVENUECAT_WEBHOOK_SECRET", ""),
		},
		Push: PushConfig{
			Endpoint: getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
		},
		Engagement: EngagementConfig{
			ScanInterval:  time.Duration(scanHours) * time.Hour,
			InactiveAfter: time.Duration(inactiveDays) * 24 * time.Hour,
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
