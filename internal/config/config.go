package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	Environment   string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	GeminiAPIKey  string
	GeminiBaseURL string
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from the environment, consulting a .env file if
// one exists. MONGO_URI, JWT_SECRET and GEMINI_API_KEY have no usable
// defaults; signing tokens with an empty secret in particular must never
// happen, so their absence fails startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		Environment:   getenv("APP_ENV", "development"),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "invision"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		GeminiAPIKey:  getenv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
