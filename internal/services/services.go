// package services defines the clients for the Reader API, article retrieval, rendering and CUPS
package services

import (
	"context"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
)

const userAgent = "readerprint/1.0"

// DocumentSource lists Reader documents.
type DocumentSource interface {
	// FetchUpdatedSince returns every document updated after since, following cursors to the last page.
	FetchUpdatedSince(ctx context.Context, since time.Time) ([]models.Document, error)

	// ListPage fetches a single page.
	ListPage(ctx context.Context, opts ListOptions) (*models.DocumentPage, error)
}

// ListOptions filters a list request. Zero values are omitted from the query.
type ListOptions struct {
	PageCursor      string
	UpdatedAfter    time.Time
	Location        string // new, later, shortlist, archive, feed
	Category        string // article, email, rss, highlight, note, pdf, epub, tweet, video
	WithHTMLContent bool
}

// PageRenderer turns a webpage into a PDF at outPath.
type PageRenderer interface {
	Render(ctx context.Context, url, outPath string) error
	Name() string
}
