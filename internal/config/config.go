// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool retrieves an environment variable as boolean or returns fallback.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// Config holds runtime configuration shared by the api and consumer
// processes.
type Config struct {
	Addr          string
	DatabaseURL   string
	MigrationsDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ArtifactsDir string
	ReportsDir   string

	DBMaxRetries    int
	DBRetryInterval time.Duration

	SMTPHost string
	SMTPPort int
	MailFrom string
	MailTo   string
}

// Load constructs a Config from environment variables.
func Load() Config {
	return Config{
		Addr:          GetString("SLOWKING_ADDR", ":8091"),
		DatabaseURL:   GetString("DATABASE_URL", "postgres://slowking:slowking@db:5432/slowking?sslmode=disable"),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", "db/migrations"),

		RedisAddr:     GetString("SLOWKING_REDIS_ADDR", "redis:6379"),
		RedisPassword: GetString("SLOWKING_REDIS_PASSWORD", ""),
		RedisDB:       GetInt("SLOWKING_REDIS_DB", 0),

		ArtifactsDir: GetString("SLOWKING_ARTIFACTS_DIR", "/home/app/artifacts"),
		ReportsDir:   GetString("SLOWKING_REPORTS_DIR", "/home/app/reports"),

		DBMaxRetries:    GetInt("DB_MAX_RETRIES", 10),
		DBRetryInterval: time.Duration(GetInt("DB_RETRY_INTERVAL_SECONDS", 1)) * time.Second,

		SMTPHost: GetString("SLOWKING_EMAIL_HOST", ""),
		SMTPPort: GetInt("SLOWKING_EMAIL_PORT", 1025),
		MailFrom: GetString("SLOWKING_MAIL_FROM", "slowking@localhost"),
		MailTo:   GetString("SLOWKING_MAIL_TO", ""),
	}
}

// SMTPAddr returns host:port for the mail relay, or empty when mail is off.
func (c Config) SMTPAddr() string {
	if c.SMTPHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}
