package models

import (
	"net/url"
	"strings"
	"time"
)

// Document is a saved article as returned by the Reader list API.
//
// Only SourceURL, ID and UpdatedAt drive the sync; the rest is carried for logs and history.
type Document struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	SourceURL string    `json:"source_url"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentPage is one page of list results.
type DocumentPage struct {
	Count          int        `json:"count"`
	NextPageCursor *string    `json:"nextPageCursor"`
	Results        []Document `json:"results"`
}

// NextCursor returns the continuation cursor, or "" on the last page.
func (p DocumentPage) NextCursor() string {
	if p.NextPageCursor == nil {
		return ""
	}
	return *p.NextPageCursor
}

// Key returns the identifier used for deduplication.
//
// The source URL is preferred so the same article saved twice prints once;
// documents without one fall back to their Reader ID.
func (d Document) Key() string {
	if src := strings.TrimSpace(d.SourceURL); src != "" {
		return src
	}
	return d.ID
}

// Label returns a human readable name for logs.
func (d Document) Label() string {
	if d.Title != "" {
		return d.Title
	}
	if d.SourceURL != "" {
		return d.SourceURL
	}
	return d.ID
}

// Fetchable reports whether SourceURL is an http(s) address that can be retrieved.
// Mail links and other schemes are not.
func (d Document) Fetchable() bool {
	src := strings.TrimSpace(d.SourceURL)
	if src == "" {
		return false
	}
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
