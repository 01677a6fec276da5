package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

const (
	rateLimiterBurst = 5

	systemPrompt = "You are a precise summarizer. Produce a plain-text abstractive summary " +
		"of the user's text. Respect the requested word bounds. Do not add commentary, " +
		"headers, or meta-language like \"The text discusses\"."
)

type openaiService struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newOpenAIService(cfg Config, logger *zerolog.Logger) *openaiService {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1
	}

	return &openaiService{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), rateLimiterBurst),
		logger:      logger,
	}
}

func (s *openaiService) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	prompt := fmt.Sprintf("Summarize the following text in at least %d and at most %d words:\n\n%s",
		minLen, maxLen, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarization request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarization: %w", apperrors.ErrEmptyResponse)
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("summarization: %w", apperrors.ErrEmptyResponse)
	}

	return out, nil
}
