package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/readerprint/internal/shared"
)

const pdfMediaType = "application/pdf"

// Resource is a retrieved article source. The caller must close Body.
type Resource struct {
	URL         string
	ContentType string
	Body        io.ReadCloser
}

// IsPDF reports whether the declared content type is application/pdf.
func (r *Resource) IsPDF() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.Contains(strings.ToLower(r.ContentType), pdfMediaType)
	}
	return mediaType == pdfMediaType
}

// Close closes the body if present.
func (r *Resource) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// ArticleFetcher retrieves article sources over HTTP.
type ArticleFetcher struct {
	httpClient *http.Client
}

// NewArticleFetcher creates a fetcher. A nil client gets one with the given timeout.
func NewArticleFetcher(client *http.Client, timeout time.Duration) *ArticleFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ArticleFetcher{httpClient: client}
}

// Resolve GETs url and returns the open response body with its declared content type.
//
// Transport failures and non-success statuses are reported as [shared.ErrResourceUnavailable].
func (f *ArticleFetcher) Resolve(ctx context.Context, url string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrResourceUnavailable, url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrResourceUnavailable, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %d", shared.ErrResourceUnavailable, url, resp.StatusCode)
	}

	return &Resource{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
