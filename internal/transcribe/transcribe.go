// Package transcribe converts local media files into plain-text transcripts.
// It extracts the audio track with ffmpeg and hands the result to a
// speech-to-text service.
package transcribe

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/core/domain"
	"github.com/vidrank/vidrank/internal/media"
)

// Transcriber produces a transcript for a local media file.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (domain.Transcript, error)
}

// Config holds transcription service settings.
type Config struct {
	APIKey       string
	Model        string
	FFmpegBinary string
	ScratchDir   string
	RateLimitRPS int
}

// New returns the speech-to-text backed Transcriber, or a deterministic mock
// when the API key is "mock" or absent.
func New(cfg Config, runner media.Runner, logger *zerolog.Logger) Transcriber {
	extractor := newAudioExtractor(cfg.FFmpegBinary, cfg.ScratchDir, runner)

	if cfg.APIKey == "" || cfg.APIKey == mockAPIKey {
		return &mockTranscriber{extractor: extractor}
	}

	return newWhisperTranscriber(cfg, extractor, logger)
}

const mockAPIKey = "mock"

type mockTranscriber struct {
	extractor *audioExtractor
}

// Transcribe still runs real audio extraction so no-audio sources fail the
// same way they do against the live service.
func (m *mockTranscriber) Transcribe(ctx context.Context, mediaPath string) (domain.Transcript, error) {
	audioPath, err := m.extractor.extract(ctx, mediaPath)
	if err != nil {
		return domain.Transcript{}, err
	}
	defer m.extractor.cleanup(audioPath)

	text := "This is a mock transcript of " + mediaPath + "."

	return domain.Transcript{Text: text, Tokens: domain.TokenCount(text)}, nil
}
