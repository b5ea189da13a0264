package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banksia/config"
	"github.com/Ramsey-B/banksia/internal/repositories/matchdecision"
	"github.com/Ramsey-B/banksia/internal/repositories/reviewitem"
	"github.com/Ramsey-B/banksia/internal/repositories/sourcerecord"
	"github.com/Ramsey-B/banksia/pkg/database"
	"github.com/Ramsey-B/banksia/pkg/embedding"
	"github.com/Ramsey-B/banksia/pkg/events"
	"github.com/Ramsey-B/banksia/pkg/gemini"
	"github.com/Ramsey-B/banksia/pkg/kafka"
	"github.com/Ramsey-B/banksia/pkg/logging"
	"github.com/Ramsey-B/banksia/pkg/matching"
	"github.com/Ramsey-B/banksia/pkg/orchestrator"
	"github.com/Ramsey-B/banksia/pkg/pipeline"
	"github.com/Ramsey-B/banksia/pkg/redis"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"github.com/Ramsey-B/banksia/pkg/tracing/exporters"
	"github.com/Ramsey-B/banksia/pkg/verification"
)

// app holds the process-wide dependencies shared by every command
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	zap    *zap.Logger

	shutdownTracing func(context.Context) error

	db       *database.DatabaseInstance
	redis    *redis.Client
	producer *kafka.Producer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, zl, err := logging.New(logging.Options{
		AppName: cfg.AppName,
		Level:   cfg.LogLevel,
		Pretty:  cfg.PrettyLogs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Exporter:    cfg.TraceExporter,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return &app{cfg: cfg, logger: logger, zap: zl, shutdownTracing: shutdown}, nil
}

func (a *app) connectDatabase(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := database.Connect(ctx, database.Config{
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		User:            a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	return nil
}

func (a *app) migrate() error {
	service := database.NewMigrationService(a.logger, database.MigrationConfig{
		FolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:    uint(a.cfg.DatabaseMigrationVersion),
		Force:      a.cfg.DatabaseMigrationForce,
	})
	return service.Migrate(a.db.DB, a.cfg.DatabaseName)
}

func (a *app) connectRedis(ctx context.Context) error {
	if !a.cfg.RedisEnabled || a.redis != nil {
		return nil
	}
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *app) openProducer() {
	if !a.cfg.KafkaProducerEnabled || a.producer != nil {
		return
	}
	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
}

// newEngine wires the adjudicator, the optional cached embedder and the thresholds into a match engine
func (a *app) newEngine(ctx context.Context) (*matching.Engine, error) {
	thresholds, err := a.cfg.Thresholds()
	if err != nil {
		return nil, err
	}

	client, err := gemini.NewClient(ctx, geminiConfig(a.cfg), a.logger)
	if err != nil {
		return nil, err
	}

	gate := verification.NewGate(client.Adjudicate, verification.Config{
		MaxConcurrency: a.cfg.LLMMaxConcurrency,
		Timeout:        a.cfg.LLMTimeout,
	}, a.logger)

	var embedder embedding.Embedder
	if a.cfg.EmbeddingsEnabled {
		embedder = client
		if a.redis != nil {
			embedder = embedding.NewCachedEmbedder(client, a.redis, a.cfg.EmbeddingModel, a.cfg.EmbeddingCacheTTL, a.logger)
		}
	}

	return matching.NewEngine(a.logger, thresholds, embedder, gate)
}

func geminiConfig(cfg *config.Config) gemini.Config {
	return gemini.Config{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.LLMModel,
		EmbeddingModel:    cfg.EmbeddingModel,
		Temperature:       cfg.LLMTemperature,
		MaxTokens:         cfg.LLMMaxTokens,
		Timeout:           cfg.LLMTimeout,
		SystemInstruction: verification.SystemInstruction,
	}
}

// newSink persists decisions to postgres and fans them out to the review queue and decision events
func (a *app) newSink() (orchestrator.Sink, error) {
	var secondary []orchestrator.Sink
	if a.cfg.ReviewQueueEnabled {
		secondary = append(secondary, orchestrator.ReviewFilter(reviewitem.NewRepository(a.db, a.logger)))
	}
	if a.producer != nil {
		secondary = append(secondary, events.NewEmitter(a.producer, a.logger))
	}
	return orchestrator.NewMultiSink(matchdecision.NewRepository(a.db, a.logger), secondary...)
}

func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	engine, err := a.newEngine(ctx)
	if err != nil {
		return nil, err
	}
	sink, err := a.newSink()
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(a.logger, sourcerecord.NewRepository(a.db, a.logger), engine, sink, orchestrator.Config{
		BatchSize: a.cfg.MatchingBatchSize,
		Workers:   a.cfg.MatchingWorkerCount,
	}), nil
}

// close releases every connection the app opened, in reverse order of opening
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, a.shutdownTracing(ctx))
	_ = a.zap.Sync()
	return errors.Join(errs...)
}
