package ports

import (
	"context"
	"errors"
	"time"

	"SlateBuilder/internal/domain"
)

// Library reads a user's saved items and the per-user aggregates needed to
// annotate candidates.
type Library interface {
	// SavedItems returns up to limit items ordered by save time descending.
	SavedItems(ctx context.Context, userID string, limit int) ([]domain.SavedItem, error)
	// OpenCount counts interaction events of kind "open" for one
	// (user, content) pair.
	OpenCount(ctx context.Context, userID, contentID string) (int, error)
	// DomainStats returns up to limit of the user's domains ordered by save
	// count descending.
	DomainStats(ctx context.Context, userID string, limit int) ([]domain.DomainStat, error)
}

// SlateStore persists a slate, its items, and their impression events as a
// single atomic transaction. Partial writes of a failed transaction must not
// be observable.
type SlateStore interface {
	CreateSlate(ctx context.Context, slate domain.Slate, items []domain.SlateItem, events []domain.ImpressionEvent) error
}

// ContentWriter ingests saved items and open interactions.
type ContentWriter interface {
	SaveContent(ctx context.Context, item domain.SavedItem) error
	RecordOpen(ctx context.Context, userID, contentID string) error
}

// StatsMaintainer reconciles the per-user domain aggregates from the raw
// content rows.
type StatsMaintainer interface {
	RecomputeDomainStats(ctx context.Context) error
}

// CandidateSource produces the annotated candidate pool for a user. An empty
// library yields an empty slice, not an error.
type CandidateSource interface {
	Fetch(ctx context.Context, userID string, poolLimit int) ([]domain.Candidate, error)
}

// NearDuplicate reports whether two candidates (by id) are too similar to
// appear in the same slate. The core assumes no default implementation.
type NearDuplicate func(aID, bID string) bool

// Deduper builds a near-duplicate predicate for one candidate pool. A nil
// predicate with a nil error means the capability is unavailable for this
// pool and selection proceeds without it.
type Deduper interface {
	BuildPredicate(ctx context.Context, pool []domain.Candidate) (NearDuplicate, error)
}

// Embedder maps texts to fixed-dimension vectors for similarity checks.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// PageMetadata extracts display metadata from a web page during ingest.
type PageMetadata interface {
	Title(ctx context.Context, pageURL string) (string, error)
}

// Scheduler controls when recurring maintenance jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// TransientError marks a store failure that is worth one immediate retry.
// Anything not wrapped in it is treated as fatal.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient store error: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. It returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
