package scoring

import (
	"reflect"
	"testing"

	"SlateBuilder/internal/domain"
)

func testWeights() Weights {
	return Weights{
		Version:        1,
		NeverOpened:    3,
		FreshForgotten: 5,
		TimeFit:        2,
		FrequentSource: 1,
		Bridge:         2,
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	c := domain.Candidate{
		ID:               "c1",
		NeverOpened:      true,
		IsFreshForgotten: true,
		IsBridge:         true,
		ReadingBucket:    domain.BucketShort,
	}
	ctx := domain.ScoreContext{LocalTimeOfDay: domain.TimeMorning}
	w := testWeights()

	score1, reasons1 := Score(c, ctx, w)
	score2, reasons2 := Score(c, ctx, w)

	if score1 != score2 {
		t.Fatalf("score not deterministic: %d vs %d", score1, score2)
	}
	if !reflect.DeepEqual(reasons1, reasons2) {
		t.Fatalf("reasons not deterministic: %v vs %v", reasons1, reasons2)
	}

	// neverOpened(3) + freshForgotten(5) + timeFit(2) + bridge(2)
	if score1 != 12 {
		t.Fatalf("expected score 12, got %d", score1)
	}
	want := []string{"never opened", "fresh forgotten", "fits morning-short", "bridge"}
	if !reflect.DeepEqual(reasons1, want) {
		t.Fatalf("unexpected reasons: %v", reasons1)
	}
}

func TestScoreSignalsAreIndependent(t *testing.T) {
	t.Parallel()

	w := testWeights()
	ctx := domain.ScoreContext{LocalTimeOfDay: domain.TimeLate}
	base := domain.Candidate{ID: "c1"}

	baseScore, baseReasons := Score(base, ctx, w)
	if baseScore != 0 || len(baseReasons) != 0 {
		t.Fatalf("inactive candidate should score 0, got %d %v", baseScore, baseReasons)
	}

	toggles := []struct {
		name   string
		adjust func(*domain.Candidate)
		delta  int
		reason string
	}{
		{"neverOpened", func(c *domain.Candidate) { c.NeverOpened = true }, 3, "never opened"},
		{"freshForgotten", func(c *domain.Candidate) { c.IsFreshForgotten = true }, 5, "fresh forgotten"},
		{"frequentSource", func(c *domain.Candidate) { c.IsFrequentSource = true }, 1, "frequent source"},
		{"bridge", func(c *domain.Candidate) { c.IsBridge = true }, 2, "bridge"},
		{"timeFit", func(c *domain.Candidate) { c.ReadingBucket = domain.BucketShort }, 2, "fits late-short"},
	}

	for _, tc := range toggles {
		c := base
		tc.adjust(&c)
		score, reasons := Score(c, ctx, w)
		if score != baseScore+tc.delta {
			t.Errorf("%s: expected score %d, got %d", tc.name, baseScore+tc.delta, score)
		}
		if len(reasons) != 1 || reasons[0] != tc.reason {
			t.Errorf("%s: expected reason %q, got %v", tc.name, tc.reason, reasons)
		}
	}
}

func TestScoreZeroWeightsAddNoReasons(t *testing.T) {
	t.Parallel()

	c := domain.Candidate{
		ID:               "c1",
		NeverOpened:      true,
		IsFreshForgotten: true,
		IsFrequentSource: true,
		IsBridge:         true,
		ReadingBucket:    domain.BucketShort,
	}
	ctx := domain.ScoreContext{LocalTimeOfDay: domain.TimeMorning}

	score, reasons := Score(c, ctx, Weights{})
	if score != 0 {
		t.Fatalf("zero weights should score 0, got %d", score)
	}
	if len(reasons) != 0 {
		t.Fatalf("zero weights should leave no reasons, got %v", reasons)
	}
}

func TestScoreRoundsToNearestInteger(t *testing.T) {
	t.Parallel()

	c := domain.Candidate{ID: "c1", NeverOpened: true, IsBridge: true}
	w := Weights{NeverOpened: 1.3, Bridge: 1.3}

	score, _ := Score(c, domain.ScoreContext{}, w)
	if score != 3 {
		t.Fatalf("expected 2.6 to round to 3, got %d", score)
	}
}

func TestTimeFitLookup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tod    domain.TimeOfDay
		bucket domain.ReadingBucket
		fits   bool
	}{
		{domain.TimeMorning, domain.BucketShort, true},
		{domain.TimeMorning, domain.BucketMedium, true},
		{domain.TimeMorning, domain.BucketLong, false},
		{domain.TimeAfternoon, domain.BucketMedium, true},
		{domain.TimeAfternoon, domain.BucketLong, true},
		{domain.TimeAfternoon, domain.BucketShort, false},
		{domain.TimeEvening, domain.BucketLong, true},
		{domain.TimeEvening, domain.BucketXLong, true},
		{domain.TimeEvening, domain.BucketShort, false},
		{domain.TimeLate, domain.BucketShort, true},
		{domain.TimeLate, domain.BucketMedium, false},
		{domain.TimeLate, domain.BucketXLong, false},
		{domain.TimeMorning, "", false},
		{"", domain.BucketShort, false},
	}

	for _, tc := range cases {
		if got := timeFits(tc.bucket, tc.tod); got != tc.fits {
			t.Errorf("timeFits(%q, %q) = %v, want %v", tc.bucket, tc.tod, got, tc.fits)
		}
	}
}
