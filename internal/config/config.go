package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database; empty means the in-memory store in development
	DatabaseURL string

	// Redis; empty disables the notification inbox
	RedisURL string

	// JWT
	JWTSecret    string
	JWTAccessTTL time.Duration
	JWTIssuer    string

	// CORS
	AllowedOrigins []string

	// Rate limiting of write routes
	RateLimitRPS   float64
	RateLimitBurst int

	// Notifications
	NotifyTimeout   time.Duration
	NotifyInboxSize int

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "15m"), 15*time.Minute),
		JWTIssuer:    getEnv("JWT_ISSUER", "forum-api"),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Rate limiting
		RateLimitRPS:   parseFloat(getEnv("RATE_LIMIT_RPS", "5"), 5),
		RateLimitBurst: parseInt(getEnv("RATE_LIMIT_BURST", "10"), 10),

		// Notifications
		NotifyTimeout:   parseDuration(getEnv("NOTIFY_TIMEOUT", "5s"), 5*time.Second),
		NotifyInboxSize: parseInt(getEnv("NOTIFY_INBOX_SIZE", "100"), 100),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseFloat(s string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesMemoryStore reports whether the API should run without Postgres
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == "" && c.IsDevelopment()
}
