// Package compare scores summaries against a topic and selects the best one.
package compare

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// Embedder returns one fixed-dimensionality vector per input string,
// deterministic for a fixed model. Implementations must be safe for
// concurrent use.
type Embedder interface {
	// EmbedBatch embeds all inputs in a single service call.
	EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error)
}

// EmbedderConfig holds embedding service settings.
type EmbedderConfig struct {
	APIKey       string
	Model        string
	RateLimitRPS int
}

const (
	mockAPIKey       = "mock"
	rateLimiterBurst = 5

	mockDimensions = 64
)

// NewEmbedder returns the model-backed Embedder, or a deterministic mock
// when the API key is "mock" or absent.
func NewEmbedder(cfg EmbedderConfig, logger *zerolog.Logger) Embedder {
	if cfg.APIKey == "" || cfg.APIKey == mockAPIKey {
		return &mockEmbedder{}
	}

	return newOpenAIEmbedder(cfg, logger)
}

type openaiEmbedder struct {
	client      *openai.Client
	model       openai.EmbeddingModel
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newOpenAIEmbedder(cfg EmbedderConfig, logger *zerolog.Logger) *openaiEmbedder {
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1
	}

	return &openaiEmbedder{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), rateLimiterBurst),
		logger:      logger,
	}
}

func (e *openaiEmbedder) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding: %w: got %d vectors for %d inputs",
			apperrors.ErrEmptyResponse, len(resp.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// mockEmbedder hashes token occurrences into a small fixed-dimensional
// vector. Texts sharing vocabulary get similar vectors, which is enough for
// deterministic tests and keyless local runs.
type mockEmbedder struct{}

func (m *mockEmbedder) EmbedBatch(_ context.Context, inputs []string) ([][]float32, error) {
	vectors := make([][]float32, len(inputs))

	for i, text := range inputs {
		vec := make([]float32, mockDimensions)

		for _, tok := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%mockDimensions]++
		}

		vectors[i] = vec
	}

	return vectors, nil
}
