package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
	"github.com/vidrank/vidrank/internal/media"
)

// audioExtractor pulls the audio track out of a media file as 16 kHz mono
// WAV, the input format speech-to-text models expect.
type audioExtractor struct {
	binary     string
	scratchDir string
	runner     media.Runner
}

func newAudioExtractor(binary, scratchDir string, runner media.Runner) *audioExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}

	return &audioExtractor{binary: binary, scratchDir: scratchDir, runner: runner}
}

func (a *audioExtractor) extract(ctx context.Context, mediaPath string) (string, error) {
	audioPath := filepath.Join(a.scratchDir, uuid.NewString()+".wav")

	args := []string{
		"-i", mediaPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		audioPath,
	}

	if _, err := a.runner.Run(ctx, a.binary, args...); err != nil {
		a.cleanup(audioPath)

		if isNoAudioError(err) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrNoAudioTrack, mediaPath)
		}

		return "", fmt.Errorf("extract audio: %w", err)
	}

	return audioPath, nil
}

// cleanup is idempotent: a missing file is not an error.
func (a *audioExtractor) cleanup(audioPath string) {
	_ = os.Remove(audioPath)
}

// isNoAudioError recognizes ffmpeg's complaints about sources with no
// decodable audio stream.
func isNoAudioError(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "does not contain any stream") ||
		strings.Contains(msg, "output file is empty") ||
		strings.Contains(msg, "stream map") && strings.Contains(msg, "matches no streams")
}
