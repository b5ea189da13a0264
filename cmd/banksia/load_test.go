package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/banksia/config"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/verification"
)

func TestDecodeRegistryRecords_ParsesStatus(t *testing.T) {
	records, err := decodeRegistryRecords(strings.NewReader(`[
		{"registry_id": "51 824 753 556", "legal_name": "Acme Pty Ltd", "status": "ACT"},
		{"registry_id": "33102417032", "legal_name": "Old Co", "status": "Cancelled"}
	]`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.RegistryStatusActive, records[0].Status)
	assert.Equal(t, models.RegistryStatusOther, records[1].Status)
}

func TestDecodeCrawlRecords_DropsIncomplete(t *testing.T) {
	records, err := decodeCrawlRecords(strings.NewReader(`[
		{"id": "c1", "url": "https://acme.com.au", "name": "Acme"},
		{"id": "", "name": "No id"},
		{"id": "c3", "name": ""}
	]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].ID)

	_, err = decodeCrawlRecords(strings.NewReader(`{"id": "c1"}`))
	assert.Error(t, err)
}

func TestUpsertInChunks(t *testing.T) {
	records := make([]int, loadChunkSize*2+1)
	var sizes []int
	total, err := upsertInChunks(context.Background(), records, func(_ context.Context, chunk []int) (int, error) {
		sizes = append(sizes, len(chunk))
		return len(chunk), nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(records), total)
	assert.Equal(t, []int{loadChunkSize, loadChunkSize, 1}, sizes)

	boom := errors.New("boom")
	total, err = upsertInChunks(context.Background(), records, func(_ context.Context, chunk []int) (int, error) {
		if len(sizes) > 3 {
			return 0, boom
		}
		sizes = append(sizes, len(chunk))
		return len(chunk), nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, loadChunkSize, total)
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "run", "migrate", "load"})
}

func TestGeminiConfig_CarriesSystemInstruction(t *testing.T) {
	cfg := &config.Config{
		GeminiAPIKey:   "key",
		LLMModel:       "gemini-2.0-flash",
		EmbeddingModel: "text-embedding-004",
		LLMTemperature: 0.3,
		LLMMaxTokens:   2000,
		LLMTimeout:     time.Minute,
	}

	got := geminiConfig(cfg)
	assert.Equal(t, verification.SystemInstruction, got.SystemInstruction)
	assert.Equal(t, "gemini-2.0-flash", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.Equal(t, time.Minute, got.Timeout)
}
