package logging

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_AddsContextFields(t *testing.T) {
	ctx := reqcontext.SetRequestID(context.Background(), "req-9")
	ctx = reqcontext.SetJobID(ctx, "job-3")

	original := map[string]interface{}{"source_id": "c-1"}
	msg := Enrich(ectologger.EctoLogMessage{Level: "info", Message: "hi", Ctx: ctx, Fields: original})

	assert.Equal(t, "req-9", msg.Fields["request_id"])
	assert.Equal(t, "job-3", msg.Fields["job_id"])
	assert.Equal(t, "c-1", msg.Fields["source_id"])
	assert.NotContains(t, msg.Fields, "trace_id")
	assert.NotContains(t, original, "request_id", "input map must not be mutated")
}

func TestEnrich_ExplicitFieldWins(t *testing.T) {
	ctx := reqcontext.SetRequestID(context.Background(), "from-ctx")
	msg := Enrich(ectologger.EctoLogMessage{Ctx: ctx, Fields: map[string]interface{}{"request_id": "explicit"}})
	assert.Equal(t, "explicit", msg.Fields["request_id"])
}

func TestEnrich_NilContext(t *testing.T) {
	msg := Enrich(ectologger.EctoLogMessage{Message: "no ctx"})
	assert.Nil(t, msg.Fields)
}

func TestNew(t *testing.T) {
	logger, zl, err := New(Options{AppName: "banksia-test", Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, zl)
	logger.WithContext(context.Background()).Debug("constructed")

	_, _, err = New(Options{Level: "chatty"})
	assert.Error(t, err)
}
