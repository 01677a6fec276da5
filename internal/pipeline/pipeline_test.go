package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidrank/vidrank/internal/compare"
	"github.com/vidrank/vidrank/internal/core/domain"
	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// pathTranscriber returns a canned transcript per media path, or fails paths
// listed in failing.
type pathTranscriber struct {
	transcripts map[string]string
	failing     map[string]error
}

func (p *pathTranscriber) Transcribe(_ context.Context, mediaPath string) (domain.Transcript, error) {
	if err, ok := p.failing[mediaPath]; ok {
		return domain.Transcript{}, err
	}

	text := p.transcripts[mediaPath]

	return domain.Transcript{Text: text, Tokens: domain.TokenCount(text)}, nil
}

// echoSummarizer clips the transcript to maxLen tokens.
type echoSummarizer struct {
	err error
}

func (e *echoSummarizer) Summarize(_ context.Context, transcript domain.Transcript, maxLen, _ int) (string, error) {
	if e.err != nil {
		return "", e.err
	}

	return domain.TruncateTokens(transcript.Text, maxLen), nil
}

func newTestOrchestrator(tr *pathTranscriber, sum Summarizer) *Orchestrator {
	logger := zerolog.Nop()
	comparator := compare.New(compare.NewEmbedder(compare.EmbedderConfig{APIKey: "mock"}, &logger))

	return New(tr, sum, comparator, Bounds{MaxLen: 180, MinLen: 60}, &logger)
}

func tempItems(t *testing.T, names ...string) []domain.WorkItem {
	t.Helper()

	dir := t.TempDir()
	items := make([]domain.WorkItem, len(names))

	for i, name := range names {
		path := filepath.Join(dir, name+".mp4")
		require.NoError(t, os.WriteFile(path, []byte("media"), 0o600))

		items[i] = domain.WorkItem{
			Source:    domain.MediaSource{Type: domain.SourceUpload, Name: name + ".mp4"},
			Index:     i,
			State:     domain.StateAcquired,
			LocalPath: path,
		}
	}

	return items
}

func TestRun_AllSucceed(t *testing.T) {
	items := tempItems(t, "a", "b", "c")

	tr := &pathTranscriber{transcripts: map[string]string{
		items[0].LocalPath: "electric car range comparison with detailed numbers",
		items[1].LocalPath: "cooking pasta with tomato sauce",
		items[2].LocalPath: "a walk in the park",
	}}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	report, err := o.Run(context.Background(), "electric car range comparison", items, nil)
	require.NoError(t, err)

	assert.Len(t, report.Videos, 3)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, "a.mp4", report.BestVideo)
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4"},
		[]string{report.Videos[0].Name, report.Videos[1].Name, report.Videos[2].Name},
		"videos keep original submission order")
}

// Scenario: three files, one with no decodable audio. Two survive, one is
// skipped with a transcription reason, and the best is chosen among the two.
func TestRun_PartialFailure(t *testing.T) {
	items := tempItems(t, "good1", "silent", "good2")

	tr := &pathTranscriber{
		transcripts: map[string]string{
			items[0].LocalPath: "electric car range comparison test results",
			items[2].LocalPath: "gardening tips for spring",
		},
		failing: map[string]error{
			items[1].LocalPath: apperrors.ErrNoAudioTrack,
		},
	}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	report, err := o.Run(context.Background(), "electric car range comparison", items, nil)
	require.NoError(t, err)

	assert.Len(t, report.Videos, 2)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "silent.mp4", report.Skipped[0].Name)
	assert.Contains(t, report.Skipped[0].Error, "transcription")
	assert.Contains(t, report.Skipped[0].Error, "no audio track")
	assert.Equal(t, "good1.mp4", report.BestVideo)
}

func TestRun_EveryItemInExactlyOneList(t *testing.T) {
	items := tempItems(t, "a", "b", "c", "d")

	tr := &pathTranscriber{
		transcripts: map[string]string{
			items[0].LocalPath: "text one",
			items[2].LocalPath: "text three",
		},
		failing: map[string]error{
			items[1].LocalPath: errors.New("decode error"),
			items[3].LocalPath: errors.New("decode error"),
		},
	}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	report, err := o.Run(context.Background(), "topic", items, nil)
	require.NoError(t, err)

	assert.Equal(t, len(items), len(report.Videos)+len(report.Skipped))

	seen := make(map[string]bool)
	for _, v := range report.Videos {
		seen[v.Name] = true
	}

	for _, s := range report.Skipped {
		assert.False(t, seen[s.Name], "item %s in both lists", s.Name)
	}
}

func TestRun_AllFail(t *testing.T) {
	items := tempItems(t, "a", "b")

	tr := &pathTranscriber{failing: map[string]error{
		items[0].LocalPath: errors.New("decode error"),
		items[1].LocalPath: errors.New("decode error"),
	}}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	_, err := o.Run(context.Background(), "topic", items, nil)
	assert.ErrorIs(t, err, apperrors.ErrAllItemsFailed)
}

func TestRun_SummarizationFailureIsolated(t *testing.T) {
	items := tempItems(t, "a")

	tr := &pathTranscriber{transcripts: map[string]string{items[0].LocalPath: "some text"}}

	o := newTestOrchestrator(tr, &echoSummarizer{err: errors.New("model down")})

	_, err := o.Run(context.Background(), "topic", items, nil)
	require.ErrorIs(t, err, apperrors.ErrAllItemsFailed)
}

func TestRun_TempFilesRemovedOnEveryPath(t *testing.T) {
	items := tempItems(t, "ok", "bad")
	paths := []string{items[0].LocalPath, items[1].LocalPath}

	tr := &pathTranscriber{
		transcripts: map[string]string{items[0].LocalPath: "good text"},
		failing:     map[string]error{items[1].LocalPath: errors.New("boom")},
	}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	_, err := o.Run(context.Background(), "topic", items, nil)
	require.NoError(t, err)

	for _, p := range paths {
		assert.NoFileExists(t, p, "temp media file must be removed")
	}
}

func TestRun_MergesAcquisitionSkips(t *testing.T) {
	items := tempItems(t, "a")

	tr := &pathTranscriber{transcripts: map[string]string{items[0].LocalPath: "good text"}}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	pre := []domain.SkippedVideo{{URL: "https://dead.example", Error: "download failed"}}

	report, err := o.Run(context.Background(), "topic", items, pre)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "https://dead.example", report.Skipped[0].URL)
}

func TestRun_LongTranscriptStillBounded(t *testing.T) {
	items := tempItems(t, "long")

	tr := &pathTranscriber{transcripts: map[string]string{
		items[0].LocalPath: strings.TrimSpace(strings.Repeat("word ", 5000)),
	}}

	o := newTestOrchestrator(tr, &echoSummarizer{})

	report, err := o.Run(context.Background(), "topic", items, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, domain.TokenCount(report.Videos[0].Summary), 180)
}
