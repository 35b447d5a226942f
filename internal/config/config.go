// Package config loads Config from THOUGHT_-prefixed environment variables,
// generalizing the teacher's godotenv.Load + getEnv/getEnvAsInt helpers with
// one addition the teacher's own Load never had: every THOUGHT_* variable
// found in the environment must map to a known field, or startup fails with
// a descriptive error naming the offending variable.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "THOUGHT_"

type Config struct {
	Broker    BrokerConfig
	Fanout    FanoutConfig
	Cache     CacheConfig
	Pipeline  PipelineConfig
	LLM       AdapterConfig
	Embedding AdapterConfig
	Ambient   AmbientConfig
}

type BrokerConfig struct {
	BootstrapServers string
	WorkTopic        string
	DLQTopic         string
	ConsumerGroup    string
	Partitions       int
	MaxRetries       int
	RetryBackoffMs   int
	BatchSize        int
	LingerMs         int
	SessionTimeoutMs int
	Enabled          bool
}

type FanoutConfig struct {
	BusURL                    string
	ChannelPrefix             string
	HeartbeatIntervalSeconds  int
	MaxConnectionsPerInstance int
}

type CacheConfig struct {
	SimilarityThreshold float64
	TTLDays             int
	EmbeddingDimension  int
}

type PipelineConfig struct {
	AgentInternalRetries int
	PipelineMaxAttempts  int
	StuckGraceMinutes    int
}

// AdapterConfig is shared between the LLM and embedding adapter sections;
// both enumerate the same four options in §6.5.
type AdapterConfig struct {
	Provider        string
	Model           string
	APIKey          string
	MaxOutputTokens int
}

type AmbientConfig struct {
	Port               string
	CorsAllowedOrigins string
	DatabaseURL        string
	LogLevel           string
	LogFilePath        string
	OtelEnabled        bool
	OtelEndpoint       string
	OpsNatsURL         string
}

// knownKeys enumerates every environment variable Load recognizes, without
// the THOUGHT_ prefix, used both to fetch values and to reject unknown ones.
var knownKeys = map[string]struct{}{
	"BROKER_BOOTSTRAP_SERVERS":  {},
	"BROKER_WORK_TOPIC":         {},
	"BROKER_DLQ_TOPIC":          {},
	"BROKER_CONSUMER_GROUP":     {},
	"BROKER_PARTITIONS":         {},
	"BROKER_MAX_RETRIES":        {},
	"BROKER_RETRY_BACKOFF_MS":   {},
	"BROKER_BATCH_SIZE":         {},
	"BROKER_LINGER_MS":          {},
	"BROKER_SESSION_TIMEOUT_MS": {},
	"BROKER_ENABLED":            {},

	"FANOUT_BUS_URL":                     {},
	"FANOUT_CHANNEL_PREFIX":              {},
	"FANOUT_HEARTBEAT_INTERVAL_SECONDS":  {},
	"FANOUT_MAX_CONNECTIONS_PER_INSTANCE": {},

	"CACHE_SIMILARITY_THRESHOLD": {},
	"CACHE_TTL_DAYS":             {},
	"CACHE_EMBEDDING_DIMENSION":  {},

	"PIPELINE_AGENT_INTERNAL_RETRIES": {},
	"PIPELINE_MAX_ATTEMPTS":           {},
	"PIPELINE_STUCK_GRACE_MINUTES":    {},

	"LLM_PROVIDER":          {},
	"LLM_MODEL":              {},
	"LLM_API_KEY":            {},
	"LLM_MAX_OUTPUT_TOKENS":  {},

	"EMBEDDING_PROVIDER":         {},
	"EMBEDDING_MODEL":            {},
	"EMBEDDING_API_KEY":          {},
	"EMBEDDING_MAX_OUTPUT_TOKENS": {},

	"PORT":                 {},
	"CORS_ALLOWED_ORIGINS": {},
	"DATABASE_URL":         {},
	"LOG_LEVEL":            {},
	"LOG_FILE_PATH":        {},
	"OTEL_ENABLED":         {},
	"OTEL_ENDPOINT":        {},
	"OPS_NATS_URL":         {},
}

// Load reads Config from the environment, applying .env via godotenv first
// for local development, then rejects any THOUGHT_-prefixed variable that
// does not name a known field.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	if err := rejectUnknownKeys(); err != nil {
		return nil, err
	}

	return &Config{
		Broker: BrokerConfig{
			BootstrapServers: getEnv("BROKER_BOOTSTRAP_SERVERS", "localhost:9092"),
			WorkTopic:        getEnv("BROKER_WORK_TOPIC", "thought-processing"),
			DLQTopic:         getEnv("BROKER_DLQ_TOPIC", "thought-processing-dlq"),
			ConsumerGroup:    getEnv("BROKER_CONSUMER_GROUP", "thought-pipeline"),
			Partitions:       getEnvAsInt("BROKER_PARTITIONS", 3),
			MaxRetries:       getEnvAsInt("BROKER_MAX_RETRIES", 3),
			RetryBackoffMs:   getEnvAsInt("BROKER_RETRY_BACKOFF_MS", 200),
			BatchSize:        getEnvAsInt("BROKER_BATCH_SIZE", 16),
			LingerMs:         getEnvAsInt("BROKER_LINGER_MS", 10),
			SessionTimeoutMs: getEnvAsInt("BROKER_SESSION_TIMEOUT_MS", 30000),
			Enabled:          getEnvAsBool("BROKER_ENABLED", true),
		},
		Fanout: FanoutConfig{
			BusURL:                    getEnv("FANOUT_BUS_URL", "redis://localhost:6379"),
			ChannelPrefix:             getEnv("FANOUT_CHANNEL_PREFIX", "updates"),
			HeartbeatIntervalSeconds:  getEnvAsInt("FANOUT_HEARTBEAT_INTERVAL_SECONDS", 30),
			MaxConnectionsPerInstance: getEnvAsInt("FANOUT_MAX_CONNECTIONS_PER_INSTANCE", 1000),
		},
		Cache: CacheConfig{
			SimilarityThreshold: getEnvAsFloat("CACHE_SIMILARITY_THRESHOLD", 0.92),
			TTLDays:             getEnvAsInt("CACHE_TTL_DAYS", 7),
			EmbeddingDimension:  getEnvAsInt("CACHE_EMBEDDING_DIMENSION", 768),
		},
		Pipeline: PipelineConfig{
			AgentInternalRetries: getEnvAsInt("PIPELINE_AGENT_INTERNAL_RETRIES", 2),
			PipelineMaxAttempts:  getEnvAsInt("PIPELINE_MAX_ATTEMPTS", 3),
			StuckGraceMinutes:    getEnvAsInt("PIPELINE_STUCK_GRACE_MINUTES", 10),
		},
		LLM: AdapterConfig{
			Provider:        getEnv("LLM_PROVIDER", "anthropic"),
			Model:           getEnv("LLM_MODEL", "claude-3-5-sonnet-20241022"),
			APIKey:          getEnv("LLM_API_KEY", ""),
			MaxOutputTokens: getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 2000),
		},
		Embedding: AdapterConfig{
			Provider:        getEnv("EMBEDDING_PROVIDER", "gemini"),
			Model:           getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			APIKey:          getEnv("EMBEDDING_API_KEY", ""),
			MaxOutputTokens: getEnvAsInt("EMBEDDING_MAX_OUTPUT_TOKENS", 0),
		},
		Ambient: AmbientConfig{
			Port:               getEnv("PORT", "3000"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			DatabaseURL:  getEnv("DATABASE_URL", ""),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFilePath:  getEnv("LOG_FILE_PATH", "app.log.csv"),
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_ENDPOINT", ""),
			OpsNatsURL:   getEnv("OPS_NATS_URL", ""),
		},
	}, nil
}

func rejectUnknownKeys() error {
	for _, kv := range os.Environ() {
		key, _, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		bare := strings.TrimPrefix(key, envPrefix)
		if _, ok := knownKeys[bare]; !ok {
			return fmt.Errorf("config: unknown environment variable %s", key)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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
