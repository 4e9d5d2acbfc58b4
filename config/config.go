package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Catalog  CatalogConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Session  SessionConfig
	Cart     CartConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type LogConfig struct {
	Level  string // debug, info, warn, error; empty derives from environment
	Format string // json, console
}

type CatalogConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshSpec string // cron expression, empty disables the scheduler
}

// StorageConfig selects the key-value backend holding persisted carts.
type StorageConfig struct {
	Driver string // memory, redis, postgres, s3
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps carts forever
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type SessionConfig struct {
	Secret     string
	Expiry     time.Duration
	CookieName string
}

type CartConfig struct {
	KeyPrefix          string
	TaxRate            string // decimal string, parsed by the cart service
	MaxSessions        int
	SessionIdleTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxSessions, err := strconv.Atoi(getEnv("CART_MAX_SESSIONS", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CART_MAX_SESSIONS: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Catalog: CatalogConfig{
			BaseURL:     strings.TrimRight(getEnv("CATALOG_BASE_URL", "https://fakestoreapi.com"), "/"),
			Timeout:     parseDuration(getEnv("CATALOG_TIMEOUT", "10s"), 10*time.Second),
			RefreshSpec: getEnv("CATALOG_REFRESH_SPEC", "*/15 * * * *"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "memory"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      parseDuration(getEnv("REDIS_CART_TTL", "0s"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "storefront-carts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("AWS_S3_PREFIX", "carts"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "your-secret-key"),
			Expiry:     parseDuration(getEnv("SESSION_EXPIRY", "720h"), 720*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "storefront_session"),
		},
		Cart: CartConfig{
			KeyPrefix:          getEnv("CART_KEY_PREFIX", "cart"),
			TaxRate:            getEnv("CART_TAX_RATE", "0.10"),
			MaxSessions:        maxSessions,
			SessionIdleTimeout: parseDuration(getEnv("CART_SESSION_IDLE_TIMEOUT", "30m"), 30*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
