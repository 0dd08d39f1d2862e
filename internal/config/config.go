// Package config loads process settings from the environment, optionally
// seeded from a dotenv file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server and the operator CLI read.
type Config struct {
	AppHost  string
	AppPort  string
	BaseURL  string
	LogLevel string
	LogFile  string

	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresMaxOpenConns int
	PostgresMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	SessionTTL   time.Duration
	SecureCookie bool

	JWTSecretKey string
	JWTExp       time.Duration

	KafkaBrokers []string // empty disables domain events
	KafkaTopic   string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string // empty disables uploads
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	RateLimitPerMinute int
}

// Load reads path with godotenv (a missing file is not an error) and then
// the process environment, which wins over the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var (
		c   Config
		err error
	)
	getInt := func(key, defaultValue string) int {
		if err != nil {
			return 0
		}
		var n int
		if n, err = strconv.Atoi(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return n
	}

	// Application config
	c.AppHost = getEnv("APP_HOST", "localhost")
	c.AppPort = getEnv("APP_PORT", "8080")
	c.BaseURL = strings.TrimRight(getEnv("APP_BASE_URL", fmt.Sprintf("http://%s:%s", c.AppHost, c.AppPort)), "/")
	c.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	c.LogFile = getEnv("APP_LOG_FILE", "")

	// PostgreSQL config
	c.PostgresHost = getEnv("POSTGRES_HOST", "localhost")
	c.PostgresPort = getInt("POSTGRES_PORT", "5432")
	c.PostgresUser = getEnv("POSTGRES_USER", "user")
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", "password")
	c.PostgresDB = getEnv("POSTGRES_DB", "database")
	c.PostgresMaxOpenConns = getInt("POSTGRES_MAX_OPEN_CONNS", "16")
	c.PostgresMaxIdleConns = getInt("POSTGRES_MAX_IDLE_CONNS", "8")

	// Redis config
	c.RedisHost = getEnv("REDIS_HOST", "localhost")
	c.RedisPort = getInt("REDIS_PORT", "6379")
	c.RedisDB = getInt("REDIS_DB", "0")
	c.RedisPassword = getEnv("REDIS_PASSWORD", "")
	c.RedisPoolSize = getInt("REDIS_POOL_SIZE", "10")
	c.RedisMinIdleConns = getInt("REDIS_MIN_IDLE_CONNS", "2")

	// Sessions and JWT
	c.SessionTTL = time.Duration(getInt("SESSION_TTL_SECOND", "1209600")) * time.Second
	c.SecureCookie = strings.HasPrefix(c.BaseURL, "https://")
	c.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	c.JWTExp = time.Duration(getInt("JWT_EXP_SECOND", "86400")) * time.Second

	// Kafka
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			c.KafkaBrokers = append(c.KafkaBrokers, b)
		}
	}
	c.KafkaTopic = getEnv("KAFKA_TOPIC", "recipe-events")

	// Object storage
	c.S3Endpoint = getEnv("S3_ENDPOINT", "")
	c.S3Region = getEnv("S3_REGION", "us-east-1")
	c.S3Bucket = getEnv("S3_BUCKET", "")
	c.S3AccessKey = getEnv("S3_ACCESS_KEY", "")
	c.S3SecretKey = getEnv("S3_SECRET_KEY", "")
	c.S3PublicURL = getEnv("S3_PUBLIC_URL", "")
	if c.S3PublicURL == "" && c.S3Endpoint != "" && c.S3Bucket != "" {
		c.S3PublicURL = strings.TrimRight(c.S3Endpoint, "/") + "/" + c.S3Bucket
	}

	c.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", "20")

	if err != nil {
		return Config{}, err
	}
	return c, nil
}

// PostgresDSN is the pgx connection URL.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// RedisAddr is host:port of the Redis server.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Addr is what the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}
