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
	App     AppConfig
	Durable DurableConfig
	Expiry  ExpiryConfig
	Cluster ClusterConfig
}

type AppConfig struct {
	Port               string
	PublicSocketURL    string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DurableConfig struct {
	Connection     string
	MongoDatabase  string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	QueueSize      int
}

type ExpiryConfig struct {
	Window    time.Duration
	Interval  time.Duration
	Broadcast bool
}

type ClusterConfig struct {
	Driver   string // "", "redis" or "nats"
	RedisURL string
	NatsURL  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", getEnv("PORT", "5001")),
			PublicSocketURL:    getEnv("PUBLIC_SOCKET_URL", "http://localhost:5001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/relay.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3004"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Durable: DurableConfig{
			Connection:     getEnv("DB_CONNECTION_STRING", getEnv("MONGO_URI", "")),
			MongoDatabase:  getEnv("MONGO_DB", "whiteboard"),
			ConnectTimeout: getEnvAsDuration("DURABLE_CONNECT_TIMEOUT", 5*time.Second),
			WriteTimeout:   getEnvAsDuration("DURABLE_WRITE_TIMEOUT", 5*time.Second),
			QueueSize:      getEnvAsInt("MIRROR_QUEUE_SIZE", 1024),
		},
		Expiry: ExpiryConfig{
			Window:    getEnvAsDuration("EXPIRY_WINDOW", 24*time.Hour),
			Interval:  getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
			Broadcast: getEnvAsBool("EXPIRY_BROADCAST", false),
		},
		Cluster: ClusterConfig{
			Driver:   strings.ToLower(getEnv("CLUSTER_DRIVER", "")),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			NatsURL:  getEnv("NATS_URL", "nats://localhost:4222"),
		},
	}
}

// IsDevelopment reports whether every origin should be accepted.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction switches the console logger to JSON.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "24h") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
