package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config sources for storefront configuration documents
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

type Config struct {
	Server     ServerConfig
	Storefront StorefrontConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Observ     ObservabilityConfig
	Platform   PlatformConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type StorefrontConfig struct {
	Source        string
	ConfigsRoot   string
	ConfigExt     string
	BaseURL       string
	DefaultConfig string
	CacheTTL      time.Duration
	CatalogFile   string
	SessionIdle   time.Duration
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers           []string
	TopicStorefront   string
	TopicConfigEvents string
	ConsumerGroup     string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type PlatformConfig struct {
	BaseURL string
	APIKey  string
	StoreID string
	Timeout time.Duration
}

// Load reads configuration from the environment. Optional integrations stay
// disabled while their address is empty.
func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("CONFIG_CACHE_TTL_SECONDS", "300"))
	platformTimeout, _ := strconv.Atoi(getEnv("PLATFORM_TIMEOUT_SECONDS", "10"))
	sessionIdle, _ := strconv.Atoi(getEnv("CART_SESSION_IDLE_MINUTES", "120"))

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", ""),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Storefront: StorefrontConfig{
			Source:        getEnv("CONFIG_SOURCE", SourceFile),
			ConfigsRoot:   getEnv("CONFIGS_ROOT", "configs"),
			ConfigExt:     getEnv("CONFIG_EXT", "tgd"),
			BaseURL:       getEnv("CONFIG_BASE_URL", ""),
			DefaultConfig: getEnv("DEFAULT_CONFIG_NAME", "default"),
			CacheTTL:      time.Duration(cacheTTL) * time.Second,
			CatalogFile:   getEnv("CATALOG_FILE", ""),
			SessionIdle:   time.Duration(sessionIdle) * time.Minute,
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(getEnv("KAFKA_BROKERS", "")),
			TopicStorefront:   getEnv("KAFKA_TOPIC_STOREFRONT_EVENTS", "storefront-events"),
			TopicConfigEvents: getEnv("KAFKA_TOPIC_CONFIG_EVENTS", "storefront-config-events"),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "storefront-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_BASE_URL", ""),
			APIKey:  getEnv("PLATFORM_API_KEY", ""),
			StoreID: getEnv("STORE_ID", ""),
			Timeout: time.Duration(platformTimeout) * time.Second,
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
