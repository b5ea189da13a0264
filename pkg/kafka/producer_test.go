package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublish(t *testing.T) {
	writer := &recordingWriter{}
	producer := newProducer(writer, "match-decisions", testLogger())

	err := producer.Publish(context.Background(),
		Event{Key: "c-1", Type: "match.confirmed", Headers: map[string]string{"registry_id": "51824753556"}, Payload: map[string]any{"source_id": "c-1"}},
		Event{Key: "c-2", Type: "match.review_required", Payload: map[string]any{"source_id": "c-2"}},
	)
	require.NoError(t, err)
	require.Len(t, writer.messages, 2)

	first := writer.messages[0]
	assert.Equal(t, "c-1", string(first.Key))
	assert.Equal(t, "match.confirmed", header(first, "event_type"))
	assert.Equal(t, "51824753556", header(first, "registry_id"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(first.Value, &payload))
	assert.Equal(t, "c-1", payload["source_id"])

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestPublish_NothingToSend(t *testing.T) {
	writer := &recordingWriter{err: errors.New("should not be called")}
	assert.NoError(t, newProducer(writer, "t", testLogger()).Publish(context.Background()))
}

func TestPublish_WriterError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker unavailable")}
	err := newProducer(writer, "t", testLogger()).Publish(context.Background(), Event{Key: "k", Type: "x", Payload: 1})
	assert.EqualError(t, err, "broker unavailable")
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Snappy, compressionCodec(""))
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
}
