// Package candidates assembles the bounded candidate pool for one user and
// precomputes the behavioral flags the scorer consumes.
package candidates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

const (
	// DefaultPoolLimit bounds the candidate pool when the caller passes no
	// explicit limit.
	DefaultPoolLimit = 500

	// domainStatsLimit caps how many of the user's top domains feed the
	// frequent-source percentile.
	domainStatsLimit = 50

	// absMinSaves is the absolute floor for the frequent-source threshold.
	absMinSaves = 3
)

// Source implements ports.CandidateSource over a library reader.
type Source struct {
	lib    ports.Library
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.CandidateSource = (*Source)(nil)

// NewSource wires the library reader. now is overridable for tests; nil
// means time.Now.
func NewSource(lib ports.Library, now func() time.Time, logger *slog.Logger) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{lib: lib, now: now, logger: logger}
}

// Fetch returns up to poolLimit annotated candidates ordered by save time
// descending. A user with no saved items yields an empty slice, not an
// error. Missing reading buckets or themes are treated as absent.
func (s *Source) Fetch(ctx context.Context, userID string, poolLimit int) ([]domain.Candidate, error) {
	if poolLimit <= 0 {
		poolLimit = DefaultPoolLimit
	}

	items, err := s.lib.SavedItems(ctx, userID, poolLimit)
	if err != nil {
		return nil, fmt.Errorf("load saved items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	now := s.now()
	threeDaysAgo := now.Add(-3 * 24 * time.Hour)
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)

	stats, err := s.lib.DomainStats(ctx, userID, domainStatsLimit)
	if err != nil {
		return nil, fmt.Errorf("load domain stats: %w", err)
	}
	saveCounts := make(map[string]int, len(stats))
	for _, ds := range stats {
		saveCounts[ds.Domain] = ds.SaveCount
	}
	threshold := frequentThreshold(stats)

	candidates := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		openCount, err := s.lib.OpenCount(ctx, userID, item.ID)
		if err != nil {
			return nil, fmt.Errorf("count opens for %s: %w", item.ID, err)
		}

		neverOpened := openCount == 0
		freshForgotten := neverOpened &&
			!item.SavedAt.Before(tenDaysAgo) && !item.SavedAt.After(threeDaysAgo)

		dom := item.Domain
		if dom == "" {
			dom = "unknown"
		}

		candidates = append(candidates, domain.Candidate{
			ID:               item.ID,
			Title:            item.Title,
			Domain:           dom,
			SavedAt:          item.SavedAt,
			ReadingBucket:    item.ReadingBucket,
			ThemeIDs:         item.ThemeIDs,
			NeverOpened:      neverOpened,
			IsFreshForgotten: freshForgotten,
			IsFrequentSource: saveCounts[dom] >= threshold,
			IsBridge:         len(item.ThemeIDs) > 1,
		})
	}

	s.debug("candidate pool assembled", "user", userID, "count", len(candidates), "threshold", threshold)
	return candidates, nil
}

// frequentThreshold derives the save count a domain must reach to count as
// a frequent source: the save count at the user's 90th percentile domain
// (index floor(n*0.1)-1 into the descending stats, clamped to 0), never
// below the absolute floor. With no stats the floor alone applies.
func frequentThreshold(stats []domain.DomainStat) int {
	if len(stats) == 0 {
		return absMinSaves
	}

	idx := len(stats)/10 - 1
	if idx < 0 {
		idx = 0
	}

	threshold := stats[idx].SaveCount
	if threshold < absMinSaves {
		return absMinSaves
	}
	return threshold
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
