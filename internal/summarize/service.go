// Package summarize wraps the text summarization service with a
// token-budget-aware map-reduce strategy so arbitrarily long transcripts
// produce bounded-length summaries.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// Service is the abstractive summarization capability. Implementations must
// be safe for concurrent use; one instance is shared by all in-flight items.
type Service interface {
	// Summarize produces a summary of text bounded by maxLen/minLen words.
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// Config holds summarization service settings.
type Config struct {
	APIKey       string
	Model        string
	RateLimitRPS int
}

const mockAPIKey = "mock"

// New returns the model-backed Service, or a deterministic mock when the API
// key is "mock" or absent.
func New(cfg Config, logger *zerolog.Logger) Service {
	if cfg.APIKey == "" || cfg.APIKey == mockAPIKey {
		return &mockService{}
	}

	return newOpenAIService(cfg, logger)
}

type mockService struct{}

// Summarize deterministically echoes a clipped form of the input so tests
// can reason about length bounds.
func (m *mockService) Summarize(_ context.Context, text string, maxLen, _ int) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("mock summarizer: %w", apperrors.ErrEmptyResponse)
	}

	if len(fields) > maxLen {
		fields = fields[:maxLen]
	}

	return strings.Join(fields, " "), nil
}
