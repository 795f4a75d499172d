package httpapi

import (
	"time"

	"SlateBuilder/internal/domain"
)

// RawContext is the request context as the client sent it: possibly partial,
// possibly carrying only an IANA timezone instead of a time-of-day bucket.
type RawContext struct {
	Device          string `json:"device"`
	LocalTimeOfDay  string `json:"localTimeOfDay"`
	AllowSameDomain bool   `json:"allowSameDomain"`
	TZ              string `json:"tz"`
}

// NormalizeContext resolves a raw context into the pipeline's normalized
// form. An explicit localTimeOfDay wins; otherwise the bucket is derived
// from now in the provided timezone, falling back to server-local time when
// the timezone is absent or invalid.
func NormalizeContext(raw RawContext, now time.Time) domain.ScoreContext {
	ctx := domain.ScoreContext{
		Device:          normalizeDevice(raw.Device),
		AllowSameDomain: raw.AllowSameDomain,
	}

	switch tod := domain.TimeOfDay(raw.LocalTimeOfDay); tod {
	case domain.TimeMorning, domain.TimeAfternoon, domain.TimeEvening, domain.TimeLate:
		ctx.LocalTimeOfDay = tod
		return ctx
	}

	local := now
	if raw.TZ != "" {
		if loc, err := time.LoadLocation(raw.TZ); err == nil {
			local = now.In(loc)
		}
	}
	ctx.LocalTimeOfDay = bucketForHour(local.Hour())
	return ctx
}

func normalizeDevice(device string) domain.DeviceClass {
	switch d := domain.DeviceClass(device); d {
	case domain.DeviceMobile, domain.DeviceDesktop:
		return d
	}
	return domain.DeviceUnknown
}

func bucketForHour(hour int) domain.TimeOfDay {
	switch {
	case hour >= 5 && hour <= 11:
		return domain.TimeMorning
	case hour >= 12 && hour <= 16:
		return domain.TimeAfternoon
	case hour >= 17 && hour <= 21:
		return domain.TimeEvening
	default:
		return domain.TimeLate
	}
}
