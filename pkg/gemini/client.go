// Package gemini backs the adjudication and embedding capabilities with Google's GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/embedding"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"google.golang.org/genai"
)

const embeddingTaskType = "SEMANTIC_SIMILARITY"

type Config struct {
	APIKey            string
	Model             string
	EmbeddingModel    string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	SystemInstruction string
}

// models is the slice of the GenAI Models service this package calls
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Client struct {
	models models
	config Config
	logger ectologger.Logger
}

// NewClient creates a Gemini API client authenticated with an API key
func NewClient(ctx context.Context, cfg Config, logger ectologger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: an API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return newClient(client.Models, cfg, logger), nil
}

func newClient(m models, cfg Config, logger ectologger.Logger) *Client {
	return &Client{models: m, config: cfg, logger: logger}
}

// Adjudicate sends prompt to the generation model and returns the reply text.
// It has the verification.Adjudicator signature.
func (c *Client) Adjudicate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "gemini.Client.Adjudicate")
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.config.Temperature)),
		MaxOutputTokens:  int32(c.config.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if c.config.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(c.config.SystemInstruction, genai.RoleUser)
	}
	if c.config.Timeout > 0 {
		config.HTTPOptions = &genai.HTTPOptions{Timeout: genai.Ptr(c.config.Timeout)}
	}

	resp, err := c.models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), config)
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	promptTokens, responseTokens := EstimateTokens(prompt), EstimateTokens(text)
	if resp.UsageMetadata != nil && resp.UsageMetadata.PromptTokenCount > 0 {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		responseTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	metrics.RecordTokens(promptTokens, responseTokens)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"model":           c.config.Model,
		"prompt_tokens":   promptTokens,
		"response_tokens": responseTokens,
	}).Debug("adjudication completed")

	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// Embed returns the embedding vector for text. It satisfies embedding.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracing.StartSpan(ctx, "gemini.Client.Embed")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyText
	}

	resp, err := c.models.EmbedContent(ctx, c.config.EmbeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: embeddingTaskType,
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini: empty embedding")
	}
	return resp.Embeddings[0].Values, nil
}

// EstimateTokens approximates token usage at four characters per token, rounded up
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
