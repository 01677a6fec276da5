package acquire

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
	"github.com/vidrank/vidrank/internal/media"
)

// Deterministic extractor client identities. Letting the extractor pick its
// own rotates per release and periodically breaks fetches.
const playerClients = "youtube:player_client=android,web"

// DownloaderConfig holds the network-hardening knobs for remote fetches.
type DownloaderConfig struct {
	Binary        string
	ScratchDir    string
	MaxRetries    int
	SocketTimeout time.Duration
	PollInterval  time.Duration
	PollAttempts  int
}

// Downloader resolves remote URLs into local media files via yt-dlp.
type Downloader struct {
	cfg    DownloaderConfig
	runner media.Runner
	logger *zerolog.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloaderConfig, runner media.Runner, logger *zerolog.Logger) *Downloader {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}

	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 25
	}

	return &Downloader{cfg: cfg, runner: runner, logger: logger}
}

// Fetch downloads one URL into the scratch directory and returns the local
// path plus the resolved remote title. Transient failures are retried with
// exponential backoff up to the configured attempt count.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, string, error) {
	id := uuid.NewString()
	expected := filepath.Join(d.cfg.ScratchDir, id+".mp4")
	template := filepath.Join(d.cfg.ScratchDir, id+".%(ext)s")

	args := []string{
		// Prefer a combined audio+video stream, fall back to best available,
		// and normalize the container.
		"-f", "b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(int(d.cfg.SocketTimeout.Seconds())),
		"--extractor-args", playerClients,
		"--no-simulate",
		"--print", "title",
		"-o", template,
		url,
	}

	var title string

	operation := func() error {
		out, err := d.runner.Run(ctx, d.cfg.Binary, args...)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			return err
		}

		title = strings.TrimSpace(out)

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(d.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		d.removeFragments(id)

		return "", "", fmt.Errorf("%w: %s: %w", apperrors.ErrDownloadFailed, url, err)
	}

	// The downloader's own process may still hold the file under a partial
	// name when it exits. Poll for the expected path, nudging stray
	// fragments into place with an atomic rename.
	if err := d.waitForFile(ctx, id, expected); err != nil {
		d.removeFragments(id)

		return "", "", err
	}

	// Copy into an independent scratch file so the rest of the pipeline
	// never contends with the downloader's temp-file lifetime.
	local, err := d.copyLocal(expected)
	if err != nil {
		d.removeFragments(id)

		return "", "", err
	}

	if title == "" {
		title = resolveTitle(ctx, url, d.cfg.SocketTimeout)
	}

	d.logger.Debug().Str("url", url).Str("path", local).Str("title", title).Msg("download complete")

	return local, title, nil
}

// removeFragments deletes everything the downloader left behind for this
// fetch, partial fragments included. A failed acquisition must leave no
// trace in the shared scratch directory. Idempotent: absence is not an
// error.
func (d *Downloader) removeFragments(id string) {
	matches, _ := filepath.Glob(filepath.Join(d.cfg.ScratchDir, id+".*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

func (d *Downloader) waitForFile(ctx context.Context, id, expected string) error {
	for attempt := 0; attempt < d.cfg.PollAttempts; attempt++ {
		if _, err := os.Stat(expected); err == nil {
			return nil
		}

		matches, _ := filepath.Glob(filepath.Join(d.cfg.ScratchDir, id+".*"))
		for _, m := range matches {
			if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
				continue
			}

			if err := os.Rename(m, expected); err == nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for download: %w", ctx.Err())
		case <-time.After(d.cfg.PollInterval):
		}
	}

	return fmt.Errorf("%w: %s", apperrors.ErrFileNotVisible, expected)
}

func (d *Downloader) copyLocal(src string) (string, error) {
	dst := scratchName(d.cfg.ScratchDir, filepath.Ext(src))

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open downloaded file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create local copy: %w", err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)

		return "", fmt.Errorf("copy downloaded file: %w", err)
	}

	if err = out.Close(); err != nil {
		_ = os.Remove(dst)

		return "", fmt.Errorf("close local copy: %w", err)
	}

	_ = os.Remove(src)

	return dst, nil
}
