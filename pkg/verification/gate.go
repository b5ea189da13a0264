// Package verification adjudicates scored candidates through an external model and
// turns whatever comes back into a trustworthy VerificationResult.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrency = 15
	DefaultTimeout        = 60 * time.Second
)

// Adjudicator sends a prompt to the external model and returns its raw text reply
type Adjudicator func(ctx context.Context, prompt string) (string, error)

type Config struct {
	MaxConcurrency int
	Timeout        time.Duration
}

// Gate bounds in-flight adjudications across every worker sharing it and applies
// an independent timeout to each call. It never retries.
type Gate struct {
	adjudicate Adjudicator
	slots      *semaphore.Weighted
	timeout    time.Duration
	logger     ectologger.Logger
}

func NewGate(adjudicate Adjudicator, cfg Config, logger ectologger.Logger) *Gate {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gate{
		adjudicate: adjudicate,
		slots:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// Verify adjudicates one candidate. Transport errors, timeouts and malformed replies
// all produce a non-matching result with zero confidence.
func (g *Gate) Verify(ctx context.Context, source models.CrawlRecord, candidate models.ScoredCandidate) models.VerificationResult {
	ctx, span := tracing.StartSpan(ctx, "verification.Gate.Verify")
	defer span.End()

	log := g.logger.WithContext(ctx).WithFields(map[string]any{
		"source_id":        source.ID,
		"registry_id":      candidate.Record.RegistryID,
		"similarity_score": candidate.CompositeScore,
	})

	prompt := BuildPrompt(source, candidate)
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return models.FailedVerification(err.Error())
	}

	start := time.Now()
	raw, err := g.call(ctx, prompt)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Warn("adjudication call failed")
		metrics.RecordVerification("error", elapsed)
		return models.FailedVerification(err.Error())
	}

	result, err := ParseResponse(raw)
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Warn("adjudication response rejected")
		metrics.RecordVerification("invalid_response", elapsed)
		return models.FailedVerification(err.Error())
	}

	label := "no_match"
	if result.IsMatch {
		label = "match"
	}
	metrics.RecordVerification(label, elapsed)
	log.WithFields(map[string]any{
		"is_match":   result.IsMatch,
		"confidence": result.Confidence,
	}).Debug("candidate adjudicated")

	return result
}

type reply struct {
	text string
	err  error
}

// call enforces the timeout even when the adjudicator ignores its context. It owns the
// slot acquired by Verify and frees it only once the adjudicator has returned.
func (g *Gate) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer g.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("adjudicator panicked: %v", r)}
			}
		}()
		text, err := g.adjudicate(ctx, prompt)
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return r.text, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("adjudication timed out after %v: %w", g.timeout, ctx.Err())
		}
		return "", ctx.Err()
	}
}
