package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the inventory service.
type Config struct {
	Env            string // "production" or "development"
	HTTPAddr       string
	MySQLDSN       string
	RedisAddr      string
	EventQueueSize int
	EventWorkers   int
}

// Load reads configuration from the environment, with a best-effort .env
// file for local development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/inventory?parseTime=true"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		EventQueueSize: getEnvInt("EVENT_QUEUE_SIZE", 1024),
		EventWorkers:   getEnvInt("EVENT_WORKERS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
