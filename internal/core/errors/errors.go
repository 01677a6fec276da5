// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import (
	"errors"
	"fmt"
)

// Request validation errors.
var (
	// ErrNoFilename indicates an uploaded file part carries no filename.
	ErrNoFilename = errors.New("uploaded file has no filename")

	// ErrNoSources indicates a request named no video sources at all.
	ErrNoSources = errors.New("no video sources in request")
)

// Acquisition errors.
var (
	// ErrDownloadFailed indicates a remote fetch exhausted its retries.
	ErrDownloadFailed = errors.New("download failed")

	// ErrFileNotVisible indicates a downloaded file never appeared under its
	// expected path within the polling window.
	ErrFileNotVisible = errors.New("downloaded file did not appear")
)

// Media and inference errors.
var (
	// ErrNoAudioTrack indicates the source media has no decodable audio.
	ErrNoAudioTrack = errors.New("no audio track found")

	// ErrEmptyResponse indicates an inference service returned no output.
	ErrEmptyResponse = errors.New("empty response")
)

// Batch outcome errors.
var (
	// ErrAllItemsFailed indicates every item in a batch failed processing.
	ErrAllItemsFailed = errors.New("all items failed processing")

	// ErrAllDownloadsFailed indicates every requested URL failed to download.
	ErrAllDownloadsFailed = errors.New("all downloads failed")
)

// Kind tags a per-item failure with the pipeline stage that produced it.
type Kind string

// Failure kinds, one per pipeline stage that can fail an item.
const (
	KindInput         Kind = "input"
	KindAcquisition   Kind = "acquisition"
	KindTranscription Kind = "transcription"
	KindSummarization Kind = "summarization"
)

// ItemError is the tagged failure attached to a single work item. Stages
// return it instead of letting raw errors cross the concurrency boundary, so
// the fan-in step can partition by kind.
type ItemError struct {
	Kind Kind
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError wraps err with a stage kind.
func NewItemError(kind Kind, err error) *ItemError {
	return &ItemError{Kind: kind, Err: err}
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
