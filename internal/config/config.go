package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI         string
	FirebaseCredentials string
	HTTPAddr            string
	CheckSchedule       string // cron spec for the due-item sweep
	ScanLimit           int
	RunTimeout          time.Duration
	LogLevel            string
	LogConsole          bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		DatabaseURI:         os.Getenv("DATABASE_URI"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		HTTPAddr:            getEnvOrDefault("HTTP_ADDR", ":8080"),
		CheckSchedule:       getEnvOrDefault("CHECK_SCHEDULE", "*/5 * * * *"),
		ScanLimit:           getEnvInt("SCAN_LIMIT", 50),
		RunTimeout:          getEnvDuration("RUN_TIMEOUT", 2*time.Minute),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogConsole:          getEnvOrDefault("LOG_CONSOLE", "") != "",
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
