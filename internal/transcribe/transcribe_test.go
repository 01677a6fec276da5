package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// fakeRunner simulates ffmpeg: it writes the output path named as the final
// argument, or fails with a canned error.
type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	f.calls++

	if f.err != nil {
		return "", f.err
	}

	return "", os.WriteFile(args[len(args)-1], []byte("wav"), 0o600)
}

func TestMockTranscriber_ExtractsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	logger := zerolog.Nop()

	tr := New(Config{APIKey: "mock", ScratchDir: dir}, runner, &logger)

	transcript, err := tr.Transcribe(context.Background(), "/videos/clip.mp4")
	require.NoError(t, err)

	assert.NotEmpty(t, transcript.Text)
	assert.Positive(t, transcript.Tokens)
	assert.Equal(t, 1, runner.calls)

	matches, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp audio file must be removed")
}

func TestTranscribe_NoAudioTrack(t *testing.T) {
	runner := &fakeRunner{err: errors.New(`command "ffmpeg" failed: exit status 1: Output file #0 does not contain any stream`)}
	logger := zerolog.Nop()

	tr := New(Config{APIKey: "mock", ScratchDir: t.TempDir()}, runner, &logger)

	_, err := tr.Transcribe(context.Background(), "/videos/silent.mp4")
	assert.ErrorIs(t, err, apperrors.ErrNoAudioTrack)
}

func TestTranscribe_OtherExtractionError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("disk full")}
	logger := zerolog.Nop()

	tr := New(Config{APIKey: "mock", ScratchDir: t.TempDir()}, runner, &logger)

	_, err := tr.Transcribe(context.Background(), "/videos/clip.mp4")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNoAudioTrack)
}
