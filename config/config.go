package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver    string
	DatabaseURL string
	ServerPort  string
	LogLevel    string
	GinMode     string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "file:sweets.db"),
		ServerPort:  getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		GinMode:     getEnv("GIN_MODE", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
