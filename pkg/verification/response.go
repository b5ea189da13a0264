package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Ramsey-B/banksia/pkg/models"
)

var (
	ErrNoJSON       = errors.New("response contains no JSON object")
	ErrMissingField = errors.New("response is missing a required field")
	ErrInvalidField = errors.New("response field has an invalid value")
)

// ParseResponse validates raw adjudicator output. Fenced or prose-wrapped JSON is accepted;
// keys may be snake_case or camelCase. A numeric confidence outside [0,1] is clamped.
func ParseResponse(raw string) (models.VerificationResult, error) {
	payload, err := extractObject(raw)
	if err != nil {
		return models.VerificationResult{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return models.VerificationResult{}, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}

	isMatch, err := boolField(fields, "is_match", "isMatch")
	if err != nil {
		return models.VerificationResult{}, err
	}
	confidence, err := confidenceField(fields)
	if err != nil {
		return models.VerificationResult{}, err
	}
	reasoning, ok := lookup(fields, "reasoning")
	if !ok {
		return models.VerificationResult{}, fmt.Errorf("%w: reasoning", ErrMissingField)
	}
	reasoningText, ok := reasoning.(string)
	if !ok {
		return models.VerificationResult{}, fmt.Errorf("%w: reasoning", ErrInvalidField)
	}

	return models.VerificationResult{
		IsMatch:    isMatch,
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(reasoningText),
		KeyFactors: keyFactors(fields),
	}, nil
}

func extractObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

func lookup(fields map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func boolField(fields map[string]any, keys ...string) (bool, error) {
	v, ok := lookup(fields, keys...)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingField, keys[0])
	}
	switch value := v.(type) {
	case bool:
		return value, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return parsed, nil
		}
	}
	return false, fmt.Errorf("%w: %s", ErrInvalidField, keys[0])
}

func confidenceField(fields map[string]any) (float64, error) {
	v, ok := lookup(fields, "confidence")
	if !ok {
		return 0, fmt.Errorf("%w: confidence", ErrMissingField)
	}

	var confidence float64
	switch value := v.(type) {
	case float64:
		confidence = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: confidence %q is not numeric", ErrInvalidField, value)
		}
		confidence = parsed
	default:
		return 0, fmt.Errorf("%w: confidence", ErrInvalidField)
	}

	if math.IsNaN(confidence) {
		return 0, fmt.Errorf("%w: confidence", ErrInvalidField)
	}
	return math.Min(1, math.Max(0, confidence)), nil
}

func keyFactors(fields map[string]any) []string {
	factors := []string{}
	v, ok := lookup(fields, "key_factors", "keyFactors")
	if !ok {
		return factors
	}
	items, ok := v.([]any)
	if !ok {
		return factors
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			factors = append(factors, strings.TrimSpace(s))
		}
	}
	return factors
}
