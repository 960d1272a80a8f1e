package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the client.
type Config struct {
	APIBaseURL        string        `validate:"required,url"`
	RealtimeURL       string        `validate:"required,url"`
	StoreDriver       string        `validate:"oneof=sqlite3 postgres redis memory"`
	StoreDSN          string        `validate:"required_if=StoreDriver sqlite3,required_if=StoreDriver postgres"`
	RedisAddr         string        `validate:"required_if=StoreDriver redis"`
	RedisPrefix       string
	AMQPURL           string
	AMQPExchange      string `validate:"required"`
	OTLPEndpoint      string
	StatusAddr        string
	StatusToken       string
	LoginEmail        string `validate:"omitempty,email"`
	LoginPassword     string
	RequestTimeout    time.Duration `validate:"gt=0"`
	ReconnectDelay    time.Duration `validate:"gt=0"`
	ReconnectAttempts int           `validate:"gte=0"`
	Environment       string
	DebugRoutes       bool
}

// Load reads configuration from the environment, after loading a .env file when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		RealtimeURL:       getEnv("REALTIME_URL", "ws://localhost:8080/ws"),
		StoreDriver:       getEnv("STORE_DRIVER", "sqlite3"),
		StoreDSN:          getEnv("STORE_DSN", "social-client.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:       getEnv("REDIS_PREFIX", "social-client"),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "social.client"),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		StatusAddr:        getEnv("STATUS_ADDR", ":8090"),
		StatusToken:       getEnv("STATUS_TOKEN", ""),
		LoginEmail:        getEnv("LOGIN_EMAIL", ""),
		LoginPassword:     getEnv("LOGIN_PASSWORD", ""),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ReconnectDelay:    getDuration("RECONNECT_DELAY", 2*time.Second),
		ReconnectAttempts: getInt("RECONNECT_ATTEMPTS", 10),
		Environment:       getEnv("ENVIRONMENT", "development"),
		DebugRoutes:       getBool("DEBUG_ROUTES", false),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, val, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, val, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
