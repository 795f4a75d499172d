// Package scoring maps annotated candidates to explainable integer scores.
//
// Score is a pure function: for a fixed weight table and context the result
// is fully determined by the candidate's flags. Every point added comes with
// a human-readable reason label so a slate can always explain itself.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"SlateBuilder/internal/domain"
)

// Reason labels attached when the matching signal fires with a nonzero weight.
const (
	ReasonNeverOpened    = "never opened"
	ReasonFreshForgotten = "fresh forgotten"
	ReasonFrequentSource = "frequent source"
	ReasonBridge         = "bridge"
)

// Score evaluates one candidate against the weight table and request context.
// Signals with a zero configured weight neither score nor leave a reason.
func Score(c domain.Candidate, ctx domain.ScoreContext, w Weights) (int, []string) {
	var total float64
	var reasons []string

	if c.NeverOpened && w.NeverOpened != 0 {
		total += w.NeverOpened
		reasons = append(reasons, ReasonNeverOpened)
	}

	if c.IsFreshForgotten && w.FreshForgotten != 0 {
		total += w.FreshForgotten
		reasons = append(reasons, ReasonFreshForgotten)
	}

	if timeFits(c.ReadingBucket, ctx.LocalTimeOfDay) && w.TimeFit != 0 {
		total += w.TimeFit
		reasons = append(reasons, fmt.Sprintf("fits %s-%s",
			ctx.LocalTimeOfDay, strings.ToLower(string(c.ReadingBucket))))
	}

	if c.IsFrequentSource && w.FrequentSource != 0 {
		total += w.FrequentSource
		reasons = append(reasons, ReasonFrequentSource)
	}

	if c.IsBridge && w.Bridge != 0 {
		total += w.Bridge
		reasons = append(reasons, ReasonBridge)
	}

	return int(math.Round(total)), reasons
}

// timeFits is a fixed lookup matching reading length to the local time of
// day: mornings favor quick reads, evenings favor long ones, late night only
// short ones.
func timeFits(bucket domain.ReadingBucket, tod domain.TimeOfDay) bool {
	if bucket == "" || tod == "" {
		return false
	}

	switch tod {
	case domain.TimeMorning:
		return bucket == domain.BucketShort || bucket == domain.BucketMedium
	case domain.TimeAfternoon:
		return bucket == domain.BucketMedium || bucket == domain.BucketLong
	case domain.TimeEvening:
		return bucket == domain.BucketLong || bucket == domain.BucketXLong
	case domain.TimeLate:
		return bucket == domain.BucketShort
	}
	return false
}
