package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/vidrank/vidrank/internal/core/domain"
	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

const rateLimiterBurst = 5

// whisperTranscriber calls the hosted speech-to-text API. The client is
// constructed once and shared read-only by all concurrent items.
type whisperTranscriber struct {
	client      *openai.Client
	model       string
	extractor   *audioExtractor
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func newWhisperTranscriber(cfg Config, extractor *audioExtractor, logger *zerolog.Logger) *whisperTranscriber {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 1
	}

	return &whisperTranscriber{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		extractor:   extractor,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), rateLimiterBurst),
		logger:      logger,
	}
}

func (w *whisperTranscriber) Transcribe(ctx context.Context, mediaPath string) (domain.Transcript, error) {
	audioPath, err := w.extractor.extract(ctx, mediaPath)
	if err != nil {
		return domain.Transcript{}, err
	}
	defer w.extractor.cleanup(audioPath)

	if err = w.rateLimiter.Wait(ctx); err != nil {
		return domain.Transcript{}, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
	})
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("speech-to-text request: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return domain.Transcript{}, fmt.Errorf("speech-to-text: %w", apperrors.ErrEmptyResponse)
	}

	w.logger.Debug().Str("media", mediaPath).Int("tokens", domain.TokenCount(text)).Msg("transcription complete")

	return domain.Transcript{Text: text, Tokens: domain.TokenCount(text)}, nil
}
