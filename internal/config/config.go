package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	Gateway GatewayConfig
	Intel   IntelConfig
	Kafka   KafkaConfig
	Monitor MonitorConfig
	OTel    OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port string
	Host string
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GatewayConfig holds the knobs of the visit flow itself: admission
// control, visitor dedup and the decoy destinations blocked traffic is
// bounced to when a shortlink is configured for redirect-on-block.
type GatewayConfig struct {
	RateLimitWindow time.Duration
	RateLimitMax    int
	// RateLimitFailOpen controls what happens when the counter store is
	// unreachable. Default is false (fail closed): this is a security
	// gateway, an unreachable store must not become an open door.
	RateLimitFailOpen bool
	DedupWindow       time.Duration
	FallbackIP        string
	DecoyURLs         []string
	// BrowserNotFoundURL is where browser traffic lands when it hits the
	// gateway without an API key, instead of the JSON error integrations get.
	BrowserNotFoundURL string
}

type IntelConfig struct {
	IPDetectiveBaseURL string
	IPDetectiveAPIKey  string
	IPWhoisBaseURL     string
	Timeout            time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type MonitorConfig struct {
	Enabled      bool
	Interval     time.Duration
	ProbeTimeout time.Duration
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "guardiao-url"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: GetEnv("APP_PORT", "8080"),
			Host: GetEnv("APP_HOST", "localhost"),
		},
		MongoDB: MongoDBConfig{
			URI:      GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGODB_DATABASE", "guardiao"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			RateLimitWindow:   GetEnvDuration("GATEWAY_RATE_WINDOW", time.Minute),
			RateLimitMax:      GetEnvInt("GATEWAY_RATE_MAX", 30),
			RateLimitFailOpen: GetEnvBool("GATEWAY_RATE_FAIL_OPEN", false),
			DedupWindow:       GetEnvDuration("GATEWAY_DEDUP_WINDOW", time.Hour),
			FallbackIP:        GetEnv("GATEWAY_FALLBACK_IP", "8.8.8.8"),
			DecoyURLs: SplitCSV(GetEnv("GATEWAY_DECOY_URLS",
				"https://httpbin.org/status/403,https://www.google.com/robots.txt")),
			BrowserNotFoundURL: GetEnv("GATEWAY_BROWSER_NOT_FOUND_URL", "https://www.google.com"),
		},
		Intel: IntelConfig{
			IPDetectiveBaseURL: GetEnv("IPDETECTIVE_BASE_URL", "https://ipdetective.p.rapidapi.com"),
			IPDetectiveAPIKey:  GetEnv("IPDETECTIVE_API_KEY", ""),
			IPWhoisBaseURL:     GetEnv("IPWHOIS_BASE_URL", "https://ipwho.is"),
			Timeout:            GetEnvDuration("INTEL_TIMEOUT", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: GetEnvBool("KAFKA_ENABLED", false),
			Brokers: SplitCSV(GetEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   GetEnv("KAFKA_TOPIC", "guardiao.visits"),
			GroupID: GetEnv("KAFKA_GROUP_ID", "guardiao-visit-consumer"),
		},
		Monitor: MonitorConfig{
			Enabled:      GetEnvBool("MONITOR_ENABLED", true),
			Interval:     GetEnvDuration("MONITOR_INTERVAL", 5*time.Minute),
			ProbeTimeout: GetEnvDuration("MONITOR_PROBE_TIMEOUT", 10*time.Second),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if cfg.Gateway.RateLimitMax <= 0 {
		return nil, fmt.Errorf("GATEWAY_RATE_MAX must be positive (got %d)", cfg.Gateway.RateLimitMax)
	}
	if cfg.Gateway.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("GATEWAY_RATE_WINDOW must be positive (got %s)", cfg.Gateway.RateLimitWindow)
	}
	if cfg.Gateway.DedupWindow <= 0 {
		return nil, fmt.Errorf("GATEWAY_DEDUP_WINDOW must be positive (got %s)", cfg.Gateway.DedupWindow)
	}
	if len(cfg.Gateway.DecoyURLs) == 0 {
		return nil, fmt.Errorf("GATEWAY_DECOY_URLS must list at least one destination")
	}

	return cfg, nil
}
