package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// fakeRunner simulates yt-dlp: it materializes the output file named by the
// -o template and prints a title, optionally failing the first N calls.
// partOnly leaves nothing but a ".part" fragment behind, the way an
// interrupted downloader does.
type fakeRunner struct {
	title     string
	failFirst int32
	calls     atomic.Int32
	err       error
	partOnly  bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	path := ""

	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			path = strings.ReplaceAll(args[i+1], "%(ext)s", "mp4")
		}
	}

	if f.calls.Add(1) <= f.failFirst {
		if f.partOnly && path != "" {
			_ = os.WriteFile(path+".part", []byte("partial"), 0o600)
		}

		return "", f.err
	}

	if f.partOnly {
		return f.title + "\n", os.WriteFile(path+".part", []byte("partial"), 0o600)
	}

	if err := os.WriteFile(path, []byte("media"), 0o600); err != nil {
		return "", err
	}

	return f.title + "\n", nil
}

func newTestDownloader(t *testing.T, runner *fakeRunner) *Downloader {
	t.Helper()

	logger := zerolog.Nop()

	return NewDownloader(DownloaderConfig{
		ScratchDir:   t.TempDir(),
		MaxRetries:   2,
		PollAttempts: 3,
	}, runner, &logger)
}

func TestSaveUpload_StreamsToUniquePath(t *testing.T) {
	dir := t.TempDir()
	payload := strings.Repeat("x", 3*saveChunkSize+17)

	path1, err := SaveUpload(dir, strings.NewReader(payload), "clip.mp4")
	require.NoError(t, err)

	path2, err := SaveUpload(dir, strings.NewReader("other"), "clip.mp4")
	require.NoError(t, err)

	assert.NotEqual(t, path1, path2, "same filename must not collide")
	assert.Equal(t, ".mp4", filepath.Ext(path1))

	data, err := os.ReadFile(path1)
	require.NoError(t, err)
	assert.Len(t, data, len(payload))
}

func TestSaveUpload_NoFilename(t *testing.T) {
	_, err := SaveUpload(t.TempDir(), strings.NewReader("x"), "  ")
	assert.ErrorIs(t, err, apperrors.ErrNoFilename)
}

func TestDownloader_Fetch(t *testing.T) {
	runner := &fakeRunner{title: "Electric Car Review"}
	dl := newTestDownloader(t, runner)

	path, title, err := dl.Fetch(context.Background(), "https://example.com/v/1")
	require.NoError(t, err)

	assert.Equal(t, "Electric Car Review", title)
	assert.FileExists(t, path)

	// the pipeline's copy must be independent of the downloader's output
	matches, err := filepath.Glob(filepath.Join(dl.cfg.ScratchDir, "*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1, "downloader temp file should be removed after copy")
}

func TestDownloader_Fetch_RetriesTransientFailure(t *testing.T) {
	runner := &fakeRunner{title: "t", failFirst: 2, err: errors.New("timeout")}
	dl := newTestDownloader(t, runner)

	_, _, err := dl.Fetch(context.Background(), "https://example.com/v/2")
	require.NoError(t, err)
	assert.Equal(t, int32(3), runner.calls.Load())
}

func TestDownloader_Fetch_ExhaustsRetries(t *testing.T) {
	runner := &fakeRunner{failFirst: 100, err: errors.New("unreachable")}
	dl := newTestDownloader(t, runner)

	_, _, err := dl.Fetch(context.Background(), "https://example.com/v/3")
	assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)
	assert.Equal(t, int32(3), runner.calls.Load(), "initial attempt plus MaxRetries")

	matches, err := filepath.Glob(filepath.Join(dl.cfg.ScratchDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "failed fetch must leave scratch clean")
}

func TestDownloader_Fetch_RemovesFragmentWhenFileNeverAppears(t *testing.T) {
	// the downloader exits zero but only a ".part" fragment ever lands on disk
	runner := &fakeRunner{title: "t", partOnly: true}
	dl := newTestDownloader(t, runner)
	dl.cfg.PollInterval = time.Millisecond

	_, _, err := dl.Fetch(context.Background(), "https://example.com/v/4")
	assert.ErrorIs(t, err, apperrors.ErrFileNotVisible)

	matches, err := filepath.Glob(filepath.Join(dl.cfg.ScratchDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "fragment must not survive a failed fetch")
}

func TestDownloader_Fetch_RemovesFragmentAfterRetriesExhaust(t *testing.T) {
	runner := &fakeRunner{failFirst: 100, err: errors.New("reset"), partOnly: true}
	dl := newTestDownloader(t, runner)

	_, _, err := dl.Fetch(context.Background(), "https://example.com/v/5")
	assert.ErrorIs(t, err, apperrors.ErrDownloadFailed)

	matches, err := filepath.Glob(filepath.Join(dl.cfg.ScratchDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "fragment must not survive a failed fetch")
}

func TestFetchAll_PartialFailureIsolation(t *testing.T) {
	logger := zerolog.Nop()
	runner := &fakeRunner{title: "ok"}
	dl := newTestDownloader(t, runner)

	// second fetch fails by pointing at a downloader that always errors
	failing := newTestDownloader(t, &fakeRunner{failFirst: 100, err: errors.New("boom")})

	good := FetchAll(context.Background(), dl, []string{"https://a", "https://b"}, &logger)
	require.Len(t, good, 2)
	assert.NoError(t, good[0].Err)
	assert.NoError(t, good[1].Err)

	bad := FetchAll(context.Background(), failing, []string{"https://c", "https://d"}, &logger)
	require.Len(t, bad, 2)
	assert.Error(t, bad[0].Err)
	assert.Error(t, bad[1].Err)
	assert.Equal(t, "https://c", bad[0].URL, "results keep input order")
}

func TestSources_KeepsOnlySuccesses(t *testing.T) {
	results := []Result{
		{URL: "https://a", Name: "A", LocalPath: "/tmp/a.mp4"},
		{URL: "https://b", Err: errors.New("boom")},
		{URL: "https://c", Name: "C", LocalPath: "/tmp/c.mp4"},
	}

	items := Sources(results)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Source.Name)
	assert.Equal(t, 2, items[1].Index, "original submission index preserved")
}

func TestHumanizeSlug(t *testing.T) {
	assert.Equal(t, "Electric Car Review", humanizeSlug("https://example.com/videos/electric-car-review.mp4"))
	assert.Equal(t, "Range Test 2026", humanizeSlug("https://example.com/range_test_2026"))
	assert.Equal(t, "https://example.com/", humanizeSlug("https://example.com/"))
}
