package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full application configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Notif    NotifConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string
	CORSOrigins string
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port pair for the Redis client.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// NotifConfig configures the notification system.
type NotifConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	AWSRegion   string

	// QueueEnabled routes emails through the Redis job queue so delivery
	// survives provider hiccups. Off by default for local development.
	QueueEnabled     bool
	QueueName        string
	QueueConcurrency int

	// TemplateDir optionally overrides the built-in email templates with
	// files from disk.
	TemplateDir string
}

// Load reads the full configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "roastery"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: loadAuthConfig(),
		Notif: NotifConfig{
			Provider:    getEnv("NOTIF_PROVIDER", "console"),
			FromAddress: getEnv("NOTIF_FROM_ADDRESS", "noreply@roastery.dev"),
			FromName:    getEnv("NOTIF_FROM_NAME", "Roastery"),
			AWSRegion:   getEnv("NOTIF_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),

			QueueEnabled:     getEnvBool("NOTIF_QUEUE_ENABLED", false),
			QueueName:        getEnv("NOTIF_QUEUE_NAME", "notifications"),
			QueueConcurrency: getEnvInt("NOTIF_QUEUE_CONCURRENCY", 2),

			TemplateDir: getEnv("EMAIL_TEMPLATE_DIR", ""),
		},
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
