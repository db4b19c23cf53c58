package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	AppURL      string

	// Authentication
	JWTSecret  string
	JWTJWKSURL string // Optional; when set, tokens are verified against the JWKS

	// Object storage
	MinioEndpoint       string
	MinioPublicEndpoint string // Host used for browser-facing presigned URLs
	MinioAccessKey      string
	MinioSecretKey      string
	MinioBucket         string
	MinioRegion         string
	MinioUseSSL         bool

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ; empty disables event publishing
	AMQPURL string

	// OnlyOffice
	OnlyOfficeServer    string
	OnlyOfficeJWTSecret string

	// Share links
	SharePasswordMaxAttempts int
	SharePasswordLockout     time.Duration

	// Background cleanup
	CleanupWorkers  int
	CleanupInterval time.Duration

	// Logging
	LogDir string
	Debug  bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	port := getEnv("PORT", "8080")

	return &Config{
		Port:        port,
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		AppURL:      getEnv("APP_URL", "http://localhost:"+port),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTJWKSURL: getEnv("JWT_JWKS_URL", ""),

		MinioEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioPublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", ""),
		MinioAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:         getEnv("MINIO_BUCKET", "documents"),
		MinioRegion:         getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:         getEnv("MINIO_USE_SSL", "false") == "true",

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AMQPURL: getEnv("AMQP_URL", ""),

		OnlyOfficeServer:    getEnv("ONLYOFFICE_SERVER", "http://localhost:8081"),
		OnlyOfficeJWTSecret: getEnv("ONLYOFFICE_JWT_SECRET", ""),

		SharePasswordMaxAttempts: getEnvInt("SHARE_PASSWORD_MAX_ATTEMPTS", 5),
		SharePasswordLockout:     getEnvDuration("SHARE_PASSWORD_LOCKOUT", 15*time.Minute),

		CleanupWorkers:  getEnvInt("CLEANUP_WORKERS", 4),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute),

		LogDir: getEnv("LOG_DIR", ""),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
