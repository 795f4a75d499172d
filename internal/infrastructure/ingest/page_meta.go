// Package ingest fetches display metadata for saved pages.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SlateBuilder/internal/ports"
)

// PageMetaFetcher extracts a page title over HTTP. Ingest treats every
// failure here as "no metadata", so the fetcher keeps a short timeout.
type PageMetaFetcher struct {
	client *http.Client
}

var _ ports.PageMetadata = (*PageMetaFetcher)(nil)

// NewPageMetaFetcher wires an HTTP client; nil gets a 10s-timeout default.
func NewPageMetaFetcher(client *http.Client) *PageMetaFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PageMetaFetcher{client: client}
}

// Title fetches pageURL and returns its og:title, falling back to the
// <title> element.
func (f *PageMetaFetcher) Title(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SlateBuilder/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title, nil
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
