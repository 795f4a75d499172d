package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// Saver ingests saved items: it derives the content domain from the URL,
// fetches the page title best-effort, and stores the row together with the
// domain save-count bump.
type Saver struct {
	store  ports.ContentWriter
	meta   ports.PageMetadata // optional
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// NewSaver wires the content writer and the optional metadata fetcher.
func NewSaver(store ports.ContentWriter, meta ports.PageMetadata, logger *slog.Logger) *Saver {
	return &Saver{
		store:  store,
		meta:   meta,
		newID:  uuid.NewString,
		now:    time.Now,
		logger: logger,
	}
}

// SaveItem records one saved URL for a user and returns the stored item.
func (s *Saver) SaveItem(ctx context.Context, userID, rawURL string) (domain.SavedItem, error) {
	dom, err := domainOf(rawURL)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("parse url: %w", err)
	}

	title := ""
	if s.meta != nil {
		title, err = s.meta.Title(ctx, rawURL)
		if err != nil {
			// Metadata is a nicety; the save itself must not depend on the
			// target page being reachable.
			s.warn("page title unavailable", "url", rawURL, "error", err)
			title = ""
		}
	}

	item := domain.SavedItem{
		ID:      s.newID(),
		UserID:  userID,
		Title:   title,
		URL:     rawURL,
		Domain:  dom,
		SavedAt: s.now(),
	}

	if err := s.store.SaveContent(ctx, item); err != nil {
		return domain.SavedItem{}, fmt.Errorf("store content: %w", err)
	}
	return item, nil
}

// RecordOpen stores one "open" interaction for a (user, content) pair.
func (s *Saver) RecordOpen(ctx context.Context, userID, contentID string) error {
	if err := s.store.RecordOpen(ctx, userID, contentID); err != nil {
		return fmt.Errorf("record open: %w", err)
	}
	return nil
}

func domainOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}

func (s *Saver) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
