package acquire

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/vidrank/vidrank/internal/core/errors"
)

// saveChunkSize keeps upload memory bounded regardless of payload size.
const saveChunkSize = 1 << 20 // 1 MiB

// SaveUpload streams one uploaded file to the scratch directory in fixed-size
// chunks and returns the unique local path. The whole payload is never held
// in memory.
func SaveUpload(dir string, r io.Reader, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", apperrors.ErrNoFilename
	}

	path := scratchName(dir, filepath.Ext(filename))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	buf := make([]byte, saveChunkSize)

	if _, err = io.CopyBuffer(f, r, buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return "", fmt.Errorf("stream upload to disk: %w", err)
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(path)

		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}
