package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores all the configuration of the application.
// Values are loaded from environment variables with optional
// loading from a .env file via godotenv.
type Config struct {
	// Database settings
	DatabaseURL string

	// Redis settings (optional; caching degrades gracefully without it)
	RedisAddr     string
	RedisUsername string
	RedisPassword string

	// Server settings
	ServerPort  string
	FrontendURL string
	JWTSecret   string

	// Completion endpoint settings (OpenAI-compatible streaming API)
	CompletionBaseURL     string
	CompletionAPIKey      string
	CompletionModel       string
	CompletionTemperature float64

	// Retrieval settings
	RetrievalTopK int
}

// LoadConfig reads configuration from environment variables and .env file.
// It returns the loaded configuration or an error if required values are missing.
func LoadConfig() (*Config, error) {
	// Try to load .env file, but proceed even if it doesn't exist
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("No .env file found, using environment variables only")
		} else {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ServerPort:  getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		CompletionBaseURL:     getEnv("COMPLETION_BASE_URL", ""),
		CompletionAPIKey:      getEnv("COMPLETION_API_KEY", ""),
		CompletionModel:       getEnv("COMPLETION_MODEL", ""),
		CompletionTemperature: getEnvAsFloat64("COMPLETION_TEMPERATURE", 0.2),

		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the required configuration values are set and logs warnings
// for optional values that aren't set.
func (c *Config) Validate() error {
	var missingEnvs []string

	if c.DatabaseURL == "" {
		missingEnvs = append(missingEnvs, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missingEnvs = append(missingEnvs, "JWT_SECRET")
	}

	if len(missingEnvs) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingEnvs, ", "))
	}

	if c.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR is not set, caching is disabled")
	}
	if c.CompletionBaseURL == "" {
		log.Println("Warning: COMPLETION_BASE_URL is not set, chat features will be disabled")
	}
	if c.CompletionModel == "" {
		log.Println("Warning: COMPLETION_MODEL is not set, using endpoint default")
	}
	if c.FrontendURL == "" {
		log.Println("Warning: FRONTEND_URL is not set, CORS might not be configured correctly")
	}

	return nil
}

// getEnv retrieves the value of the environment variable named by the key.
// If the variable is not present, the defaultValue is returned.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an int, falling back to
// defaultValue when unset or unparseable.
func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat64 retrieves an environment variable as a float64, falling back
// to defaultValue when unset or unparseable.
func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}
