package domain

import "time"

// ReadingBucket is the coarse content-length classification attached to a
// saved item by the feature extractor. An empty value means the feature is
// not available for that item.
type ReadingBucket string

const (
	BucketShort  ReadingBucket = "SHORT"
	BucketMedium ReadingBucket = "MEDIUM"
	BucketLong   ReadingBucket = "LONG"
	BucketXLong  ReadingBucket = "XLONG"
)

// DeviceClass describes the requesting device.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
	DeviceUnknown DeviceClass = "unknown"
)

// TimeOfDay is the normalized local time bucket supplied by the caller.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeLate      TimeOfDay = "late"
)

// SavedItem is a raw library row: one piece of content a user saved,
// together with its optional features. Reading bucket and themes may be
// absent; absence is never an error.
type SavedItem struct {
	ID            string
	UserID        string
	Title         string
	URL           string
	Domain        string
	SavedAt       time.Time
	ReadingBucket ReadingBucket
	ThemeIDs      []string
}

// DomainStat is a per-user aggregate of saves for one domain.
type DomainStat struct {
	Domain    string
	SaveCount int
}

// Candidate is a saved item annotated with the behavioral flags the scorer
// consumes. Candidates are immutable for the duration of one pipeline run.
type Candidate struct {
	ID            string
	Title         string
	Domain        string
	SavedAt       time.Time
	ReadingBucket ReadingBucket
	ThemeIDs      []string

	NeverOpened      bool
	IsFreshForgotten bool
	IsFrequentSource bool
	IsBridge         bool
}

// ScoreContext carries the already-normalized request context used for
// time-fit scoring and selection options.
type ScoreContext struct {
	Device          DeviceClass `json:"device"`
	LocalTimeOfDay  TimeOfDay   `json:"localTimeOfDay"`
	AllowSameDomain bool        `json:"allowSameDomain,omitempty"`
}

// Scored is a candidate with its computed score and the reason labels that
// explain it. Fields are never mutated after scoring; the selector only
// changes which Scored values are part of the slate.
type Scored struct {
	Candidate
	Score   int
	Reasons []string
}

// SlateMeta is the opaque metadata stored with a slate: the weights version
// that produced it and a snapshot of the request context. Empty marks an
// analytics-only slate created for a user with no candidates.
type SlateMeta struct {
	WeightsVersion int          `json:"weightsVersion"`
	Context        ScoreContext `json:"context"`
	Empty          bool         `json:"empty,omitempty"`
}

// Slate is one persisted serving of recommendations.
type Slate struct {
	ID        string
	UserID    string
	Meta      SlateMeta
	CreatedAt time.Time
}

// SlateItem is a single ranked entry of a slate. Position is 1-based and
// contiguous; it defines the final presentation order.
type SlateItem struct {
	SlateID   string
	Position  int
	ContentID string
	Score     int
	Reasons   []string
}

// ImpressionEvent records that an item was shown to a user as part of a
// specific slate. It is written in the same transaction as the slate.
type ImpressionEvent struct {
	ID        string
	UserID    string
	ContentID string
	SlateID   string
	Reasons   []string
}

// SlateRequest is the pipeline entry contract. Validation of shape and
// bounds belongs to the caller; the pipeline assumes normalized input.
type SlateRequest struct {
	UserID  string
	K       int
	Context ScoreContext
}

// SlateItemResult is the caller-facing view of one selected item.
type SlateItemResult struct {
	ContentID string   `json:"contentId"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
}

// SlateResult is the outcome of a successful pipeline run.
type SlateResult struct {
	SlateID string            `json:"slateId"`
	Items   []SlateItemResult `json:"items"`
}
