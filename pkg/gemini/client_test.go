package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	reply       string
	vector      []float32
	err         error
	lastModel   string
	lastConfig  *genai.GenerateContentConfig
	lastEmbed   *genai.EmbedContentConfig
	lastContent []*genai.Content
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel, f.lastContent, f.lastConfig = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastModel, f.lastContent, f.lastEmbed = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	if f.vector == nil {
		return &genai.EmbedContentResponse{}, nil
	}
	return &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: f.vector}}}, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testConfig() Config {
	return Config{
		Model:             "gemini-2.0-flash",
		EmbeddingModel:    "text-embedding-004",
		Temperature:       0.3,
		MaxTokens:         2000,
		Timeout:           time.Minute,
		SystemInstruction: "be precise",
	}
}

func TestAdjudicate(t *testing.T) {
	fake := &fakeModels{reply: ` {"is_match": true} `}
	client := newClient(fake, testConfig(), testLogger())

	text, err := client.Adjudicate(context.Background(), "compare these")
	require.NoError(t, err)
	assert.Equal(t, `{"is_match": true}`, text)

	assert.Equal(t, "gemini-2.0-flash", fake.lastModel)
	require.NotNil(t, fake.lastConfig)
	assert.Equal(t, int32(2000), fake.lastConfig.MaxOutputTokens)
	assert.InDelta(t, 0.3, float64(*fake.lastConfig.Temperature), 1e-6)
	assert.Equal(t, "application/json", fake.lastConfig.ResponseMIMEType)
	require.NotNil(t, fake.lastConfig.HTTPOptions)
	assert.Equal(t, time.Minute, *fake.lastConfig.HTTPOptions.Timeout)
	require.NotNil(t, fake.lastConfig.SystemInstruction)
	require.Len(t, fake.lastContent, 1)
	assert.Equal(t, "compare these", fake.lastContent[0].Parts[0].Text)
}

func TestAdjudicate_Errors(t *testing.T) {
	client := newClient(&fakeModels{err: errors.New("quota")}, testConfig(), testLogger())
	_, err := client.Adjudicate(context.Background(), "p")
	assert.ErrorContains(t, err, "quota")

	client = newClient(&fakeModels{reply: "   "}, testConfig(), testLogger())
	_, err = client.Adjudicate(context.Background(), "p")
	assert.ErrorContains(t, err, "empty response")
}

func TestEmbed(t *testing.T) {
	fake := &fakeModels{vector: []float32{0.1, 0.2}}
	client := newClient(fake, testConfig(), testLogger())

	vector, err := client.Embed(context.Background(), "acme plumbing")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
	assert.Equal(t, "text-embedding-004", fake.lastModel)
	assert.Equal(t, "SEMANTIC_SIMILARITY", fake.lastEmbed.TaskType)

	_, err = client.Embed(context.Background(), "  ")
	assert.ErrorIs(t, err, embedding.ErrEmptyText)

	_, err = newClient(&fakeModels{}, testConfig(), testLogger()).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "empty embedding")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, testLogger())
	assert.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}
