package anim

import (
	"math"
	"time"
)

// Spring parameter bounds. The default spring is used below the
// velocity threshold; above it, parameters scale continuously with
// gesture magnitude: stiffness falls and damping rises so fast flicks
// travel softer and settle harder. Stiffness stays within
// [minStiffness, maxStiffness], damping within [minDamping,
// maxDamping], and the momentum factor is capped at maxMomentumFactor.
const (
	defaultMass      = 1.0
	defaultStiffness = 180.0
	defaultDamping   = 22.0

	minStiffness = 90.0
	maxStiffness = 190.0
	minDamping   = 20.0
	maxDamping   = 40.0

	maxMomentumFactor = 2.0

	stiffnessDropPerFactor = 70.0
	dampingRisePerFactor   = 14.0
	massRisePerFactor      = 0.5

	// Duration model: distance/200 plus a velocity contribution,
	// clamped to [minDuration, maxDuration].
	distanceDivisor    = 200.0
	velocityWeight     = 0.4
	minDurationSeconds = 0.25
	maxDurationSeconds = 1.0

	// Degraded-mode substitutes.
	mediumDurationScale   = 0.8
	lowTierDurationMillis = 200
	reduceMotionScale     = 0.1

	settleEnergyThreshold = 0.1
	settleDurationMillis  = 150
	momentumFloor         = 0.01
)

func defaultSpring() SpringParams {
	return SpringParams{
		Mass:      defaultMass,
		Stiffness: defaultStiffness,
		Damping:   defaultDamping,
	}
}

// lighterSpring is the single generic preset substituted for heavy
// presets on the medium tier.
func lighterSpring() SpringParams {
	return SpringParams{
		Mass:      defaultMass,
		Stiffness: defaultStiffness,
		Damping:   defaultDamping + 6,
	}
}

// heavyKinds carry richer presets on the high tier and collapse to
// the generic lighter preset on medium.
var heavyPresets = map[TransitionKind]SpringParams{
	KindShuffle:      {Mass: 1.2, Stiffness: 160, Damping: 18},
	KindVictory:      {Mass: 1.3, Stiffness: 150, Damping: 16},
	KindTrickCollect: {Mass: 1.1, Stiffness: 170, Damping: 20},
}

// combinedVelocity merges the gesture's start and drag velocities.
func combinedVelocity(start, drag, dragWeight float64) float64 {
	return start + dragWeight*drag
}

// momentumFactor maps a gesture magnitude to the scaling factor
// applied to the spring, capped at maxMomentumFactor.
func momentumFactor(magnitude, velocityNorm float64) float64 {
	factor := 1.0 + (magnitude/velocityNorm)*2.0
	return math.Min(factor, maxMomentumFactor)
}

// scaledSpring derives the spring for a fast gesture. Stiffness
// strictly decreases and damping strictly increases with magnitude
// until the factor cap.
func scaledSpring(factor float64) SpringParams {
	excess := factor - 1.0

	return SpringParams{
		Mass:      defaultMass + excess*massRisePerFactor,
		Stiffness: clampFloat(defaultStiffness-excess*stiffnessDropPerFactor, minStiffness, maxStiffness),
		Damping:   clampFloat(defaultDamping+excess*dampingRisePerFactor, minDamping, maxDamping),
	}
}

// baseDuration computes the unadapted duration for a request.
func baseDuration(distance, magnitude, velocityNorm float64) time.Duration {
	seconds := distance/distanceDivisor + (magnitude/velocityNorm)*velocityWeight
	seconds = clampFloat(seconds, minDurationSeconds, maxDurationSeconds)

	return time.Duration(seconds * float64(time.Second))
}

func clampFloat(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}

	if value > maxValue {
		return maxValue
	}

	return value
}
