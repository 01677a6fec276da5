// Package acquire normalizes requested video sources (uploaded byte streams
// or remote URLs) into local, uniquely named media files in the scratch
// directory. One source's failure never aborts its siblings.
package acquire

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/core/domain"
	apperrors "github.com/vidrank/vidrank/internal/core/errors"
	"github.com/vidrank/vidrank/internal/observability"
)

// Result is the outcome of acquiring one remote source. Exactly one of
// LocalPath or Err is set.
type Result struct {
	URL       string
	Name      string
	LocalPath string
	Err       error
}

// FetchAll downloads every URL concurrently and joins with a full barrier,
// collecting successes and failures alike. Results are returned in input
// order.
func FetchAll(ctx context.Context, dl *Downloader, urls []string, logger *zerolog.Logger) []Result {
	results := make([]Result, len(urls))

	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)

		go func(i int, url string) {
			defer wg.Done()

			path, title, err := dl.Fetch(ctx, url)
			if err != nil {
				logger.Warn().Str("url", url).Err(err).Msg("download failed")
				observability.DownloadsTotal.WithLabelValues("failed").Inc()

				results[i] = Result{URL: url, Err: apperrors.NewItemError(apperrors.KindAcquisition, err)}

				return
			}

			observability.DownloadsTotal.WithLabelValues("ok").Inc()

			results[i] = Result{URL: url, Name: title, LocalPath: path}
		}(i, url)
	}

	wg.Wait()

	return results
}

// Sources converts acquisition results into work items for the pipeline,
// keeping only the successful ones.
func Sources(results []Result) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(results))

	for i, r := range results {
		if r.Err != nil {
			continue
		}

		items = append(items, domain.WorkItem{
			Source: domain.MediaSource{
				Type: domain.SourceURL,
				Name: r.Name,
				URL:  r.URL,
			},
			Index:     i,
			State:     domain.StateAcquired,
			LocalPath: r.LocalPath,
		})
	}

	return items
}

// scratchName builds a collision-free path in dir: a random token plus the
// original extension. Collision-freedom across concurrent items comes from
// the random name, not locking.
func scratchName(dir, ext string) string {
	return filepath.Join(dir, uuid.NewString()+ext)
}
