package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	AppName string
	Level   string
	Pretty  bool
}

// New builds a zap-backed ectologger that stamps request, job and trace ids onto every entry
func New(opts Options) (ectologger.Logger, *zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	cfg := zap.NewProductionConfig()
	if opts.Pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, nil, err
	}
	if opts.AppName != "" {
		zl = zl.With(zap.String("app", opts.AppName))
	}

	return zapadapter.NewZapEctoLogger(zl, Enrich), zl, nil
}

// Enrich copies context-scoped ids into the message fields
func Enrich(msg ectologger.EctoLogMessage) ectologger.EctoLogMessage {
	if msg.Ctx == nil {
		return msg
	}

	fields := make(map[string]interface{}, len(msg.Fields)+4)
	for k, v := range msg.Fields {
		fields[k] = v
	}
	for k, v := range reqcontext.Fields(msg.Ctx) {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	if traceID := tracing.GetTraceID(msg.Ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	msg.Fields = fields
	return msg
}

// Discard returns a logger that drops everything
func Discard() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
