package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// Event is one JSON message destined for the producer's topic
type Event struct {
	Key     string
	Type    string
	Headers map[string]string
	Payload any
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events to a single topic
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressionCodec(cfg.Compression),
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, cfg.Topic, logger)
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{writer: writer, logger: logger, topic: topic}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	}
	return kafka.Snappy
}

func (p *Producer) Topic() string {
	return p.topic
}

// Close flushes pending messages and closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Publish writes events as one batch. Messages are keyed so that every event for the
// same key lands on the same partition.
func (p *Producer) Publish(ctx context.Context, events ...Event) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Publish")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}

		headers := []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}}
		for k, v := range event.Headers {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}

		messages = append(messages, kafka.Message{
			Key:     []byte(event.Key),
			Value:   data,
			Headers: headers,
		})
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, messages...)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordKafkaPublish(p.topic, "error", elapsed)
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic": p.topic,
			"count": len(messages),
		}).Error("Failed to publish events")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "success", elapsed)

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": p.topic,
		"count": len(messages),
	}).Debug("Published events")
	return nil
}
