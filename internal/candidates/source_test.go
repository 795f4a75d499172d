package candidates

import (
	"context"
	"testing"
	"time"

	"SlateBuilder/internal/domain"
)

type fakeLibrary struct {
	items      []domain.SavedItem
	stats      []domain.DomainStat
	openCounts map[string]int

	itemsErr error
}

func (f *fakeLibrary) SavedItems(_ context.Context, _ string, limit int) ([]domain.SavedItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeLibrary) OpenCount(_ context.Context, _, contentID string) (int, error) {
	return f.openCounts[contentID], nil
}

func (f *fakeLibrary) DomainStats(_ context.Context, _ string, _ int) ([]domain.DomainStat, error) {
	return f.stats, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestFetchEmptyLibrary(t *testing.T) {
	t.Parallel()

	source := NewSource(&fakeLibrary{}, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty library should yield empty pool, got %d", len(got))
	}
}

func TestFetchNeverOpenedFlag(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{
		items: []domain.SavedItem{
			{ID: "opened", Domain: "a.com", SavedAt: fixedNow().Add(-24 * time.Hour)},
			{ID: "untouched", Domain: "b.com", SavedAt: fixedNow().Add(-48 * time.Hour)},
		},
		openCounts: map[string]int{"opened": 2},
	}

	source := NewSource(lib, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if got[0].NeverOpened {
		t.Error("item with open events flagged neverOpened")
	}
	if !got[1].NeverOpened {
		t.Error("item without open events not flagged neverOpened")
	}
}

func TestFetchFreshForgottenWindow(t *testing.T) {
	t.Parallel()

	now := fixedNow()
	cases := []struct {
		name    string
		savedAt time.Time
		opened  bool
		want    bool
	}{
		{"saved yesterday", now.Add(-24 * time.Hour), false, false},
		{"exactly 3 days", now.Add(-3 * 24 * time.Hour), false, true},
		{"inside window", now.Add(-6 * 24 * time.Hour), false, true},
		{"exactly 10 days", now.Add(-10 * 24 * time.Hour), false, true},
		{"11 days old", now.Add(-11 * 24 * time.Hour), false, false},
		{"inside window but opened", now.Add(-6 * 24 * time.Hour), true, false},
	}

	for _, tc := range cases {
		lib := &fakeLibrary{
			items:      []domain.SavedItem{{ID: "c1", Domain: "a.com", SavedAt: tc.savedAt}},
			openCounts: map[string]int{},
		}
		if tc.opened {
			lib.openCounts["c1"] = 1
		}

		source := NewSource(lib, fixedNow, nil)
		got, err := source.Fetch(context.Background(), "u1", 10)
		if err != nil {
			t.Fatalf("%s: Fetch returned error: %v", tc.name, err)
		}
		if got[0].IsFreshForgotten != tc.want {
			t.Errorf("%s: isFreshForgotten = %v, want %v", tc.name, got[0].IsFreshForgotten, tc.want)
		}
	}
}

func TestFetchFrequentSourcePercentile(t *testing.T) {
	t.Parallel()

	// 20 domains: percentile index = floor(20*0.1)-1 = 1, so the threshold
	// is the second-highest save count (40).
	stats := make([]domain.DomainStat, 0, 20)
	stats = append(stats,
		domain.DomainStat{Domain: "top.com", SaveCount: 50},
		domain.DomainStat{Domain: "second.com", SaveCount: 40},
	)
	for i := 0; i < 18; i++ {
		stats = append(stats, domain.DomainStat{Domain: "rest.com", SaveCount: 5})
	}

	lib := &fakeLibrary{
		items: []domain.SavedItem{
			{ID: "hot", Domain: "top.com", SavedAt: fixedNow()},
			{ID: "warm", Domain: "second.com", SavedAt: fixedNow()},
			{ID: "cold", Domain: "rest.com", SavedAt: fixedNow()},
		},
		stats: stats,
	}

	source := NewSource(lib, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if !got[0].IsFrequentSource || !got[1].IsFrequentSource {
		t.Error("domains at or above the percentile threshold should be frequent")
	}
	if got[2].IsFrequentSource {
		t.Error("domain below the percentile threshold flagged frequent")
	}
}

func TestFetchFrequentSourceFloorWithoutStats(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{
		items: []domain.SavedItem{{ID: "c1", Domain: "a.com", SavedAt: fixedNow()}},
	}

	source := NewSource(lib, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got[0].IsFrequentSource {
		t.Error("no stats means no domain reaches the absolute floor")
	}
}

func TestFetchFrequentSourceFloorClampsLowPercentile(t *testing.T) {
	t.Parallel()

	// Two domains: the percentile index clamps to 0, making the top count
	// (3) the threshold, which coincides with the absolute floor.
	lib := &fakeLibrary{
		items: []domain.SavedItem{
			{ID: "a", Domain: "two.com", SavedAt: fixedNow()},
			{ID: "b", Domain: "three.com", SavedAt: fixedNow()},
		},
		stats: []domain.DomainStat{
			{Domain: "three.com", SaveCount: 3},
			{Domain: "two.com", SaveCount: 2},
		},
	}

	source := NewSource(lib, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got[0].IsFrequentSource {
		t.Error("save count 2 is under the absolute floor")
	}
	if !got[1].IsFrequentSource {
		t.Error("save count 3 meets the absolute floor")
	}
}

func TestFetchBridgeAndFeatureAbsence(t *testing.T) {
	t.Parallel()

	lib := &fakeLibrary{
		items: []domain.SavedItem{
			{ID: "multi", Domain: "a.com", SavedAt: fixedNow(), ThemeIDs: []string{"t1", "t2"}},
			{ID: "single", Domain: "b.com", SavedAt: fixedNow(), ThemeIDs: []string{"t1"}},
			{ID: "bare", Domain: "", SavedAt: fixedNow()},
		},
	}

	source := NewSource(lib, fixedNow, nil)
	got, err := source.Fetch(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if !got[0].IsBridge {
		t.Error("candidate with two themes should be a bridge")
	}
	if got[1].IsBridge || got[2].IsBridge {
		t.Error("candidates with fewer than two themes flagged bridge")
	}
	if got[2].Domain != "unknown" {
		t.Errorf("empty domain should fall back to unknown, got %q", got[2].Domain)
	}
	if got[2].ReadingBucket != "" {
		t.Errorf("absent reading bucket should stay empty, got %q", got[2].ReadingBucket)
	}
}
