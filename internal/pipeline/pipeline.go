// Package pipeline drives acquired work items through transcription and
// summarization concurrently, isolating per-item failures, and assembles the
// final comparison report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/compare"
	"github.com/vidrank/vidrank/internal/core/domain"
	apperrors "github.com/vidrank/vidrank/internal/core/errors"
	"github.com/vidrank/vidrank/internal/observability"
	"github.com/vidrank/vidrank/internal/summarize"
	"github.com/vidrank/vidrank/internal/transcribe"
)

// Summarizer is the chunked summarization strategy the orchestrator feeds
// transcripts into.
type Summarizer interface {
	Summarize(ctx context.Context, transcript domain.Transcript, maxLen, minLen int) (string, error)
}

// Bounds are the requested length bounds for final summaries.
type Bounds struct {
	MaxLen int
	MinLen int
}

// Orchestrator owns the work items of one request from acquisition to the
// final report. Service handles are shared, read-only capabilities
// constructed once at process startup.
type Orchestrator struct {
	transcriber transcribe.Transcriber
	summarizer  Summarizer
	comparator  *compare.Comparator
	bounds      Bounds
	logger      *zerolog.Logger
}

// New creates an Orchestrator.
func New(
	transcriber transcribe.Transcriber,
	summarizer Summarizer,
	comparator *compare.Comparator,
	bounds Bounds,
	logger *zerolog.Logger,
) *Orchestrator {
	if bounds.MaxLen <= 0 {
		bounds.MaxLen = 180
	}

	if bounds.MinLen <= 0 {
		bounds.MinLen = 60
	}

	return &Orchestrator{
		transcriber: transcriber,
		summarizer:  summarizer,
		comparator:  comparator,
		bounds:      bounds,
		logger:      logger,
	}
}

var _ Summarizer = (*summarize.Chunker)(nil)

// Run processes every acquired item concurrently to a terminal state, scores
// the survivors, and assembles the report. preSkipped carries failures from
// the acquisition stage so every original source appears in exactly one of
// the report's lists. Returns ErrAllItemsFailed when no item survives.
func (o *Orchestrator) Run(ctx context.Context, topic string, items []domain.WorkItem, preSkipped []domain.SkippedVideo) (*domain.ComparisonReport, error) {
	o.processAll(ctx, items)

	succeeded, skipped := partition(items)
	skipped = append(preSkipped, skipped...)

	if len(succeeded) == 0 {
		return nil, fmt.Errorf("%w: %d item(s) skipped", apperrors.ErrAllItemsFailed, len(skipped))
	}

	summaries := make([]string, len(succeeded))
	for i, item := range succeeded {
		summaries[i] = item.Result.Summary
	}

	bestIndex, details, err := o.comparator.Score(ctx, summaries, topic)
	if err != nil {
		return nil, fmt.Errorf("score summaries: %w", err)
	}

	// Reattach original names in submission order; succeeded is already
	// ordered because partition walks items in order.
	videos := make([]domain.ScoredVideo, len(succeeded))
	for i, item := range succeeded {
		videos[i] = domain.ScoredVideo{
			Name:    item.Source.Name,
			Summary: item.Result.Summary,
			Score:   details[i].Final,
			Details: details[i],
		}
	}

	return &domain.ComparisonReport{
		Topic:     topic,
		Videos:    videos,
		Skipped:   skipped,
		BestVideo: videos[bestIndex].Name,
	}, nil
}

// processAll fans out one goroutine per item and joins with a full barrier:
// every item reaches a terminal state, success or failure, before scoring
// begins.
func (o *Orchestrator) processAll(ctx context.Context, items []domain.WorkItem) {
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)

		go func(item *domain.WorkItem) {
			defer wg.Done()
			o.processItem(ctx, item)
		}(&items[i])
	}

	wg.Wait()
}

// processItem walks one item through transcribe then summarize. Each stage
// runs inside its own failure boundary: an error marks the item Failed with
// a tagged reason and never touches sibling items. Temp files are removed on
// every exit path.
func (o *Orchestrator) processItem(ctx context.Context, item *domain.WorkItem) {
	defer o.removeTempFiles(item)

	item.State = domain.StateTranscribing

	start := time.Now()

	transcript, err := o.transcriber.Transcribe(ctx, item.LocalPath)

	observability.StageDuration.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())

	if err != nil {
		o.fail(item, apperrors.KindTranscription, err)

		return
	}

	item.Transcript = transcript
	item.State = domain.StateSummarizing

	start = time.Now()

	summary, err := o.summarizer.Summarize(ctx, transcript, o.bounds.MaxLen, o.bounds.MinLen)

	observability.StageDuration.WithLabelValues("summarize").Observe(time.Since(start).Seconds())

	if err != nil {
		o.fail(item, apperrors.KindSummarization, err)

		return
	}

	item.Result = domain.SummaryResult{Summary: summary}
	item.State = domain.StateSummarized

	observability.ItemsProcessed.WithLabelValues("summarized").Inc()
}

func (o *Orchestrator) fail(item *domain.WorkItem, kind apperrors.Kind, err error) {
	item.State = domain.StateFailed
	item.Err = apperrors.NewItemError(kind, err)

	observability.ItemsProcessed.WithLabelValues("failed").Inc()

	o.logger.Warn().Str("name", item.Source.Name).Str("stage", string(kind)).Err(err).
		Msg("item failed, skipping")
}

// removeTempFiles is idempotent; a file already gone is not an error.
func (o *Orchestrator) removeTempFiles(item *domain.WorkItem) {
	if item.LocalPath == "" {
		return
	}

	if err := os.Remove(item.LocalPath); err != nil && !os.IsNotExist(err) {
		o.logger.Warn().Str("path", item.LocalPath).Err(err).Msg("failed to remove temp file")
	}

	item.LocalPath = ""
}

// partition splits terminal items into succeeded and skipped, preserving
// original submission order in both lists.
func partition(items []domain.WorkItem) ([]domain.WorkItem, []domain.SkippedVideo) {
	succeeded := make([]domain.WorkItem, 0, len(items))
	skipped := make([]domain.SkippedVideo, 0)

	for _, item := range items {
		if item.State == domain.StateSummarized {
			succeeded = append(succeeded, item)

			continue
		}

		skipped = append(skipped, domain.SkippedVideo{
			Name:  item.Source.Name,
			Error: item.Err.Error(),
		})
	}

	return succeeded, skipped
}
