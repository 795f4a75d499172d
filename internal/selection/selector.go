// Package selection picks up to k scored candidates while enforcing domain,
// near-duplicate, reading-length, and topic-diversity guards.
//
// The algorithm is a greedy fill followed by targeted repair swaps; it makes
// no attempt at global optimality. Selection re-sorts its input strictly by
// score: this is a deliberate re-ranking boundary, and any secondary
// tie-break applied upstream is discarded here. Ties keep their incoming
// relative order because the sort is stable.
package selection

import (
	"sort"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// Options tunes one selection run.
type Options struct {
	// AllowSameDomain disables the first-pass domain guard.
	AllowSameDomain bool
	// RequireShortIfAvailable swaps a SHORT read into the slate when the
	// pool offers one and none survived the greedy fill.
	RequireShortIfAvailable bool
	// MinDistinctThemes is the topic coverage target for the repair pass;
	// zero or negative disables it.
	MinDistinctThemes int
	// NearDuplicate, when non-nil, is authoritative: a pair it flags is
	// never both present in the final selection, repairs included.
	NearDuplicate ports.NearDuplicate
}

// DefaultOptions mirrors the pipeline's standing policy.
func DefaultOptions() Options {
	return Options{
		RequireShortIfAvailable: true,
		MinDistinctThemes:       2,
	}
}

// Select returns at most k items from pool in final presentation order.
// When fewer than k qualifying items exist it returns fewer, never padding.
func Select(pool []domain.Scored, k int, opts Options) []domain.Scored {
	if k <= 0 || len(pool) == 0 {
		return nil
	}

	items := make([]domain.Scored, len(pool))
	copy(items, pool)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	selected := make([]domain.Scored, 0, k)
	selectedIDs := make(map[string]bool, k)
	seenDomains := make(map[string]bool)

	// Pass 1: strict. Domain guard plus near-duplicate guard.
	for _, it := range items {
		if len(selected) >= k {
			break
		}
		if !opts.AllowSameDomain && it.Domain != "" && seenDomains[it.Domain] {
			continue
		}
		if !dupFree(it, selected, -1, opts.NearDuplicate) {
			continue
		}

		selected = append(selected, it)
		selectedIDs[it.ID] = true
		if it.Domain != "" {
			seenDomains[it.Domain] = true
		}
	}

	// Pass 2: relaxed. Fill remaining slots ignoring the domain guard; the
	// near-duplicate guard still applies.
	if len(selected) < k {
		for _, it := range items {
			if len(selected) >= k {
				break
			}
			if selectedIDs[it.ID] {
				continue
			}
			if !dupFree(it, selected, -1, opts.NearDuplicate) {
				continue
			}

			selected = append(selected, it)
			selectedIDs[it.ID] = true
		}
	}

	selected = repairShort(items, selected, selectedIDs, opts)
	selected = repairThemes(items, selected, selectedIDs, opts)

	if len(selected) > k {
		selected = selected[:k]
	}
	return selected
}

// repairShort guarantees a SHORT read in the slate when the pool has one,
// swapping out the lowest-scored non-SHORT item.
func repairShort(items, selected []domain.Scored, selectedIDs map[string]bool, opts Options) []domain.Scored {
	if !opts.RequireShortIfAvailable {
		return selected
	}

	poolHasShort := false
	for _, it := range items {
		if it.ReadingBucket == domain.BucketShort {
			poolHasShort = true
			break
		}
	}
	if !poolHasShort {
		return selected
	}
	for _, s := range selected {
		if s.ReadingBucket == domain.BucketShort {
			return selected
		}
	}

	// Lowest-scored non-SHORT victim, scanning from the end.
	replaceIdx := -1
	for i := len(selected) - 1; i >= 0; i-- {
		if selected[i].ReadingBucket != domain.BucketShort {
			replaceIdx = i
			break
		}
	}
	if replaceIdx == -1 {
		return selected
	}

	// Best-scored unselected SHORT that stays duplicate-free against the
	// items that remain selected.
	for _, it := range items {
		if it.ReadingBucket != domain.BucketShort || selectedIDs[it.ID] {
			continue
		}
		if !dupFree(it, selected, replaceIdx, opts.NearDuplicate) {
			continue
		}

		delete(selectedIDs, selected[replaceIdx].ID)
		selected[replaceIdx] = it
		selectedIDs[it.ID] = true
		break
	}
	return selected
}

// repairThemes swaps unselected theme carriers in until the selection covers
// MinDistinctThemes distinct themes or no further swap is possible. Missing
// themes are visited in pool (score) order.
func repairThemes(items, selected []domain.Scored, selectedIDs map[string]bool, opts Options) []domain.Scored {
	if opts.MinDistinctThemes <= 0 {
		return selected
	}

	poolHasThemes := false
	var poolThemes []string
	poolSeen := map[string]bool{}
	for _, it := range items {
		for _, t := range it.ThemeIDs {
			poolHasThemes = true
			if !poolSeen[t] {
				poolSeen[t] = true
				poolThemes = append(poolThemes, t)
			}
		}
	}
	if !poolHasThemes {
		return selected
	}

	covered := themeCoverage(selected)
	if len(covered) >= opts.MinDistinctThemes {
		return selected
	}

	for _, theme := range poolThemes {
		if covered[theme] {
			continue
		}

		// Lowest-scored selected item not already covering this theme.
		replaceIdx := -1
		for i := len(selected) - 1; i >= 0; i-- {
			if !hasTheme(selected[i], theme) {
				replaceIdx = i
				break
			}
		}
		if replaceIdx == -1 {
			continue
		}

		for _, it := range items {
			if selectedIDs[it.ID] || !hasTheme(it, theme) {
				continue
			}
			if !dupFree(it, selected, replaceIdx, opts.NearDuplicate) {
				continue
			}

			delete(selectedIDs, selected[replaceIdx].ID)
			selected[replaceIdx] = it
			selectedIDs[it.ID] = true
			break
		}

		covered = themeCoverage(selected)
		if len(covered) >= opts.MinDistinctThemes {
			break
		}
	}
	return selected
}

// dupFree reports whether it can coexist with the current selection under
// the predicate, ignoring the item at skipIdx (the swap victim).
func dupFree(it domain.Scored, selected []domain.Scored, skipIdx int, pred ports.NearDuplicate) bool {
	if pred == nil {
		return true
	}
	for i, s := range selected {
		if i == skipIdx {
			continue
		}
		if pred(s.ID, it.ID) {
			return false
		}
	}
	return true
}

func themeCoverage(selected []domain.Scored) map[string]bool {
	covered := map[string]bool{}
	for _, s := range selected {
		for _, t := range s.ThemeIDs {
			covered[t] = true
		}
	}
	return covered
}

func hasTheme(it domain.Scored, theme string) bool {
	for _, t := range it.ThemeIDs {
		if t == theme {
			return true
		}
	}
	return false
}
