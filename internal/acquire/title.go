package acquire

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxTitleBytes = 64 << 10

// resolveTitle produces a display name for a remote source when the
// downloader did not report one: the page <title> if the URL is fetchable,
// otherwise a humanized form of the URL slug.
func resolveTitle(ctx context.Context, rawURL string, timeout time.Duration) string {
	if title := pageTitle(ctx, rawURL, timeout); title != "" {
		return title
	}

	return humanizeSlug(rawURL)
}

func pageTitle(ctx context.Context, rawURL string, timeout time.Duration) string {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	doc, err := html.Parse(io.LimitReader(resp.Body, maxTitleBytes))
	if err != nil {
		return ""
	}

	var title string

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}

			return
		}

		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return title
}

// humanizeSlug turns the last URL path segment into a readable name,
// e.g. "electric-car-review" becomes "Electric Car Review".
func humanizeSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}

	slug := path.Base(u.Path)
	slug = strings.TrimSuffix(slug, path.Ext(slug))
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return rawURL
	}

	return cases.Title(language.English).String(strings.ToLower(slug))
}
