package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/core/domain"
	"github.com/vidrank/vidrank/internal/observability"
)

// Token-budget constants. The budget is the maximum input length, in
// whitespace tokens, one summarization call can accept.
const (
	inputTokenBudget = 900

	// Very short inputs shrink the requested bounds so the model is never
	// asked for an output longer than makes sense.
	shortInputTokens = 30
	shortMaxLen      = 60
	shortMinLen      = 10

	// Bounds for the per-window map pass of an over-budget transcript.
	mapMaxLen = 120
	mapMinLen = 30

	// Floors for the single retry with halved bounds.
	retryMaxFloor = 30
	retryMinFloor = 10
)

// EmptySummary is returned for transcripts with no content at all.
const EmptySummary = "No content to summarize."

// Chunker turns transcripts of any length into bounded summaries. Inputs
// within the service's token budget are summarized in one call; longer ones
// go through a map-reduce: fixed-size windows summarized independently, the
// concatenation truncated back to budget, then a final reduce pass at the
// caller's bounds.
type Chunker struct {
	svc    Service
	logger *zerolog.Logger
}

// NewChunker wraps svc with the chunking strategy.
func NewChunker(svc Service, logger *zerolog.Logger) *Chunker {
	return &Chunker{svc: svc, logger: logger}
}

// Summarize produces a summary bounded by maxLen/minLen words. Deterministic
// given a deterministic Service.
func (c *Chunker) Summarize(ctx context.Context, transcript domain.Transcript, maxLen, minLen int) (string, error) {
	if strings.TrimSpace(transcript.Text) == "" {
		return EmptySummary, nil
	}

	if transcript.Tokens <= inputTokenBudget {
		if transcript.Tokens < shortInputTokens {
			maxLen = min(maxLen, shortMaxLen)
			minLen = shortMinLen
		}

		return c.summarizeWithRetry(ctx, transcript.Text, maxLen, minLen)
	}

	windows := splitWindows(transcript.Text, inputTokenBudget)
	observability.SummarizerChunks.Observe(float64(len(windows)))

	c.logger.Debug().Int("tokens", transcript.Tokens).Int("windows", len(windows)).
		Msg("transcript over budget, running map-reduce summarization")

	partials := make([]string, len(windows))

	for i, window := range windows {
		partial, err := c.summarizeWithRetry(ctx, window, mapMaxLen, mapMinLen)
		if err != nil {
			return "", fmt.Errorf("window %d/%d: %w", i+1, len(windows), err)
		}

		partials[i] = partial
	}

	combined := domain.TruncateTokens(strings.Join(partials, " "), inputTokenBudget)

	return c.summarizeWithRetry(ctx, combined, maxLen, minLen)
}

// summarizeWithRetry applies the bounded retry policy: one extra attempt
// with halved length bounds, then the failure propagates.
func (c *Chunker) summarizeWithRetry(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	out, err := c.svc.Summarize(ctx, text, maxLen, minLen)
	if err == nil {
		return out, nil
	}

	halvedMax := max(maxLen/2, retryMaxFloor)
	halvedMin := max(minLen/2, retryMinFloor)

	c.logger.Warn().Err(err).Int("max_len", halvedMax).Int("min_len", halvedMin).
		Msg("summarization failed, retrying with halved bounds")

	out, retryErr := c.svc.Summarize(ctx, text, halvedMax, halvedMin)
	if retryErr != nil {
		return "", fmt.Errorf("summarization failed after retry: %w", retryErr)
	}

	return out, nil
}

// splitWindows cuts text into fixed-size, non-overlapping token windows.
func splitWindows(text string, size int) []string {
	fields := strings.Fields(text)

	windows := make([]string, 0, (len(fields)+size-1)/size)

	for start := 0; start < len(fields); start += size {
		end := min(start+size, len(fields))
		windows = append(windows, strings.Join(fields[start:end], " "))
	}

	return windows
}
