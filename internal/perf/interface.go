package perf

import "time"

// Sampler computes a rolling frame rate from per-frame timestamps and
// derives the quality tier used to scale animation cost.
type Sampler interface {
	// RecordFrame is called once per rendered frame. It may be
	// called from any goroutine; the computed rate is marshalled
	// back onto the run loop before publishing.
	RecordFrame(now time.Time)

	// Rate returns the last full-window frame rate.
	Rate() float64

	// QualityTier returns the current quality tier.
	QualityTier() Tier

	// Acceptable reports whether the current rate sustains the
	// frame budget.
	Acceptable() bool

	// Reset discards the in-progress window.
	Reset()
}

// Tier is the discretized performance level.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier thresholds in frames per second.
const (
	highRateThreshold   = 55.0
	mediumRateThreshold = 45.0
)

// TierForRate maps a full-window average rate to a tier.
func TierForRate(rate float64) Tier {
	switch {
	case rate >= highRateThreshold:
		return TierHigh
	case rate >= mediumRateThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
