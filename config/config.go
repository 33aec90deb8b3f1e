package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with sensible defaults.
type Config struct {
	// HTTP server
	ServerPort string

	// External search provider (unofficial, unreliable)
	ProviderBaseURL string
	ProviderTimeout time.Duration

	// Generative-AI gateway
	AIAPIBaseURL  string
	AIAPIKey      string
	AIModels      []string // Preference-ordered model identifiers
	AIMaxTokens   int
	AITemperature float64
	AICooldown    time.Duration
	AIMaxRetries  int
	AIBaseBackoff time.Duration

	// Recommendation engine
	TargetQueueSize int

	// Cache TTLs
	QueryCacheTTL      time.Duration
	QueryCacheMaxSize  int
	RecommendationTTL  time.Duration
	TrackMetadataTTL   time.Duration
	CacheSweepInterval time.Duration

	// Redis (persistent cache tiers)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL (play-history store, optional)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration (e.g. "2m",
// "6h") or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	models := strings.Split(getEnv("AI_MODELS", "gemini-2.0-flash,gemini-1.5-flash,gemini-1.5-flash-8b"), ",")
	for i := range models {
		models[i] = strings.TrimSpace(models[i])
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "http://127.0.0.1:3000"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		AIAPIBaseURL:  getEnv("AI_API_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModels:      models,
		AIMaxTokens:   getEnvInt("AI_MAX_TOKENS", 1024),
		AITemperature: 0.8,
		AICooldown:    getEnvDuration("AI_COOLDOWN", 2*time.Minute),
		AIMaxRetries:  getEnvInt("AI_MAX_RETRIES", 3),
		AIBaseBackoff: getEnvDuration("AI_BASE_BACKOFF", time.Second),

		TargetQueueSize: getEnvInt("TARGET_QUEUE_SIZE", 20),

		QueryCacheTTL:      getEnvDuration("QUERY_CACHE_TTL", 6*time.Hour),
		QueryCacheMaxSize:  getEnvInt("QUERY_CACHE_MAX_SIZE", 200),
		RecommendationTTL:  getEnvDuration("RECOMMENDATION_TTL", 2*time.Hour),
		TrackMetadataTTL:   getEnvDuration("TRACK_METADATA_TTL", 30*24*time.Hour),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "autoqfm"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
