// Readwise Reader API implementation of [DocumentSource]
//
// See https://readwise.io/reader_api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	readerBaseURL   = "https://readwise.io/api/v3"
	readerTokenType = "Token"
)

var _ DocumentSource = (*ReaderService)(nil)

// ReaderService implements [DocumentSource] for the Readwise Reader list endpoint.
type ReaderService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	defaults   ListOptions
	logger     *log.Logger
	now        func() time.Time
}

// NewReaderService creates a Reader client from cfg using [http.DefaultTransport].
func NewReaderService(cfg shared.ReaderConfig, logger *log.Logger) *ReaderService {
	return NewReaderServiceWithTransport(cfg, http.DefaultTransport, logger)
}

// NewReaderServiceWithTransport creates a Reader client whose requests go through base.
//
// The token is attached by an [oauth2.Transport]; RequestsPerMinute <= 0 disables pacing.
func NewReaderServiceWithTransport(cfg shared.ReaderConfig, base http.RoundTripper, logger *log.Logger) *ReaderService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = readerBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   readerTokenType,
	})

	return &ReaderService{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: &oauth2.Transport{Source: source, Base: base}},
		limiter:    rate.NewLimiter(limit, 1),
		defaults: ListOptions{
			Location:        cfg.Location,
			Category:        cfg.Category,
			WithHTMLContent: cfg.WithHTMLContent,
		},
		logger: shared.WithLogger(logger, "service", "reader"),
		now:    time.Now,
	}
}

func (s *ReaderService) Name() string {
	return "Readwise Reader"
}

// FetchUpdatedSince pages through /list/ until the server stops returning a cursor.
//
// Results keep page order. A failed page fails the whole call and nothing fetched so far is returned.
func (s *ReaderService) FetchUpdatedSince(ctx context.Context, since time.Time) ([]models.Document, error) {
	opts := s.defaults
	opts.UpdatedAfter = since

	var docs []models.Document
	for page := 1; ; page++ {
		result, err := s.ListPage(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		docs = append(docs, result.Results...)
		s.logger.Debug("fetched page", "page", page, "results", len(result.Results), "total", len(docs))

		cursor := result.NextCursor()
		if cursor == "" {
			break
		}
		opts.PageCursor = cursor
	}

	return docs, nil
}

// ListPage performs one GET /list/ request.
func (s *ReaderService) ListPage(ctx context.Context, opts ListOptions) (*models.DocumentPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/list/?"+listQuery(opts).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &shared.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), s.now())}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &shared.StatusError{StatusCode: resp.StatusCode}
	}

	var page models.DocumentPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	if opts.PageCursor != "" {
		q.Set("pageCursor", opts.PageCursor)
	}
	if !opts.UpdatedAfter.IsZero() {
		q.Set("updatedAfter", opts.UpdatedAfter.UTC().Format(time.RFC3339))
	}
	if opts.Location != "" {
		q.Set("location", opts.Location)
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.WithHTMLContent {
		q.Set("withHtmlContent", "true")
	}
	return q
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Anything else yields zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
