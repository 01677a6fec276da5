package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/vidrank/vidrank/internal/acquire"
	"github.com/vidrank/vidrank/internal/core/domain"
	apperrors "github.com/vidrank/vidrank/internal/core/errors"
	"github.com/vidrank/vidrank/internal/observability"
)

const maxURLsBody = 1 << 20

type urlsRequest struct {
	Topic string   `json:"topic"`
	URLs  []string `json:"urls"`
}

type errorResponse struct {
	Error   string                `json:"error"`
	Skipped []domain.SkippedVideo `json:"skipped,omitempty"`
}

// handleCompareUploads accepts a multipart form with a topic field and one
// or more video blobs, streams each blob to scratch, and runs the pipeline.
func (s *Server) handleCompareUploads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, "compare_videos", http.StatusBadRequest, err, nil)

		return
	}

	var (
		topic string
		items []domain.WorkItem
	)

	// On any early return the already-saved uploads must not outlive the
	// request; the orchestrator owns removal only once it runs.
	cleanup := func() {
		for _, item := range items {
			_ = os.Remove(item.LocalPath)
		}
	}

	for {
		part, partErr := mr.NextPart()
		if errors.Is(partErr, io.EOF) {
			break
		}

		if partErr != nil {
			cleanup()
			s.writeError(w, "compare_videos", http.StatusBadRequest, partErr, nil)

			return
		}

		switch part.FormName() {
		case "topic":
			data, readErr := io.ReadAll(io.LimitReader(part, maxURLsBody))
			if readErr != nil {
				cleanup()
				s.writeError(w, "compare_videos", http.StatusBadRequest, readErr, nil)

				return
			}

			topic = strings.TrimSpace(string(data))
		case "files":
			// A file part with no filename is a malformed request, not a
			// skippable item.
			path, saveErr := acquire.SaveUpload(s.scratchDir, part, part.FileName())
			if saveErr != nil {
				status := http.StatusInternalServerError
				if errors.Is(saveErr, apperrors.ErrNoFilename) {
					status = http.StatusBadRequest
				}

				cleanup()
				s.writeError(w, "compare_videos", status, apperrors.NewItemError(apperrors.KindInput, saveErr), nil)

				return
			}

			items = append(items, domain.WorkItem{
				Source: domain.MediaSource{
					Type: domain.SourceUpload,
					Name: part.FileName(),
				},
				Index:     len(items),
				State:     domain.StateAcquired,
				LocalPath: path,
			})
		}

		_ = part.Close()
	}

	if len(items) == 0 {
		s.writeError(w, "compare_videos", http.StatusBadRequest, apperrors.NewItemError(apperrors.KindInput, apperrors.ErrNoSources), nil)

		return
	}

	report, err := s.orchestrator.Run(ctx, topic, items, nil)
	if err != nil {
		s.writeError(w, "compare_videos", http.StatusInternalServerError, err, nil)

		return
	}

	s.writeReport(w, "compare_videos", report)
}

// handleCompareURLs accepts a JSON body naming a topic and remote URLs,
// downloads every URL concurrently, and runs the pipeline over the
// survivors. Download failures become skip entries unless every URL fails.
func (s *Server) handleCompareURLs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var req urlsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxURLsBody)).Decode(&req); err != nil {
		s.writeError(w, "compare_videos_urls", http.StatusBadRequest, err, nil)

		return
	}

	if len(req.URLs) == 0 {
		s.writeError(w, "compare_videos_urls", http.StatusBadRequest, apperrors.NewItemError(apperrors.KindInput, apperrors.ErrNoSources), nil)

		return
	}

	results := acquire.FetchAll(ctx, s.downloader, req.URLs, s.logger)

	var downloadSkips []domain.SkippedVideo

	for _, res := range results {
		if res.Err != nil {
			downloadSkips = append(downloadSkips, domain.SkippedVideo{URL: res.URL, Error: res.Err.Error()})
		}
	}

	items := acquire.Sources(results)
	if len(items) == 0 {
		s.writeError(w, "compare_videos_urls", http.StatusBadGateway, apperrors.ErrAllDownloadsFailed, downloadSkips)

		return
	}

	report, err := s.orchestrator.Run(ctx, req.Topic, items, downloadSkips)
	if err != nil {
		s.writeError(w, "compare_videos_urls", http.StatusInternalServerError, err, downloadSkips)

		return
	}

	s.writeReport(w, "compare_videos_urls", report)
}

func (s *Server) writeReport(w http.ResponseWriter, endpoint string, report *domain.ComparisonReport) {
	observability.RequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, status int, err error, skipped []domain.SkippedVideo) {
	observability.RequestsTotal.WithLabelValues(endpoint, "error").Inc()

	s.logger.Warn().Int("status", status).Err(err).Str("endpoint", endpoint).Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Skipped: skipped})
}
