package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/utils"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"banksia-api"`
	Port                          int      `env:"PORT" env-default:"3004" validate:"gt=0,lte=65535"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"60"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" validate:"gt=0"`

	// Tracing
	TraceExporter string `env:"TRACE_EXPORTER" env-default:"none" validate:"oneof=none console otlp"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol  string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	OTLPInsecure  bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`

	// PostgreSQL
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                int           `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:"postgres"`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"banksia"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Redis (embedding cache and job lock)
	RedisEnabled      bool          `env:"REDIS_ENABLED" env-default:"true"`
	RedisHost         string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB           int           `env:"REDIS_DB" env-default:"0"`
	EmbeddingCacheTTL time.Duration `env:"EMBEDDING_CACHE_TTL" env-default:"24h"`

	// Kafka Producer settings
	KafkaProducerEnabled bool     `env:"KAFKA_PRODUCER_ENABLED" env-default:"false"`
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic     string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"match-decisions"`
	KafkaBatchSize       int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout    int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks    int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression     string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Adjudication and embeddings
	GeminiAPIKey      string        `env:"GEMINI_API_KEY" env-default:""`
	LLMModel          string        `env:"LLM_MODEL" env-default:"gemini-2.0-flash"`
	EmbeddingModel    string        `env:"EMBEDDING_MODEL" env-default:"text-embedding-004"`
	LLMTemperature    float64       `env:"LLM_TEMPERATURE" env-default:"0.3" validate:"gte=0,lte=2"`
	LLMMaxTokens      int           `env:"LLM_MAX_TOKENS" env-default:"2000" validate:"gt=0"`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" env-default:"60s"`
	LLMMaxConcurrency int           `env:"LLM_MAX_CONCURRENCY" env-default:"15" validate:"gt=0"`
	EmbeddingsEnabled bool          `env:"EMBEDDINGS_ENABLED" env-default:"true"`

	// Matching thresholds
	ExactMatchThreshold     float64 `env:"EXACT_MATCH_THRESHOLD" env-default:"0.95"`
	HighConfidenceThreshold float64 `env:"HIGH_CONFIDENCE_THRESHOLD" env-default:"0.85"`
	LLMReviewThreshold      float64 `env:"LLM_REVIEW_THRESHOLD" env-default:"0.60"`
	ManualReviewThreshold   float64 `env:"MANUAL_REVIEW_THRESHOLD" env-default:"0.40"`

	// Processing
	MatchingBatchSize   int           `env:"MATCHING_BATCH_SIZE" env-default:"1000" validate:"gt=0"`
	MatchingWorkerCount int           `env:"MATCHING_WORKER_COUNT" env-default:"8" validate:"gt=0"`
	JobWorkerCount      int           `env:"JOB_WORKER_COUNT" env-default:"1" validate:"gt=0"`
	JobQueueSize        int           `env:"JOB_QUEUE_SIZE" env-default:"16" validate:"gt=0"`
	JobLockTTL          time.Duration `env:"JOB_LOCK_TTL" env-default:"2h"`
	ReviewQueueEnabled  bool          `env:"REVIEW_QUEUE_ENABLED" env-default:"true"`
}

// Load reads .env files when present, then binds the environment onto a Config
func Load() (*Config, error) {
	for _, file := range []string{".env", ".env.local"} {
		_ = godotenv.Load(file)
	}

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field rules and the threshold ordering
func (c *Config) Validate() error {
	if _, err := utils.Validate(*c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Thresholds(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Thresholds builds the immutable matching thresholds
func (c *Config) Thresholds() (models.Thresholds, error) {
	return models.NewThresholds(c.ManualReviewThreshold, c.LLMReviewThreshold, c.HighConfidenceThreshold, c.ExactMatchThreshold)
}
