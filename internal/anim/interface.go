package anim

import (
	"time"

	"codeberg.org/verne/gamepulse/internal/perf"
	"github.com/google/uuid"
)

// TransitionKind tags an animation with the motion it performs.
type TransitionKind string

const (
	KindCardDeal     TransitionKind = "card_deal"
	KindCardPlay     TransitionKind = "card_play"
	KindCardSelect   TransitionKind = "card_select"
	KindTrickCollect TransitionKind = "trick_collect"
	KindShuffle      TransitionKind = "shuffle"
	KindVictory      TransitionKind = "victory"
	KindTurnStart    TransitionKind = "turn_start"
	KindSettle       TransitionKind = "settle"
)

// Priority orders queued tasks. Higher runs first; ties keep
// insertion order.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// SpringParams parameterize a spring-driven transition.
type SpringParams struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

// Request describes one transition to animate. Velocities are in
// points per second, distance in points.
type Request struct {
	Kind          TransitionKind
	Distance      float64
	StartVelocity float64
	DragVelocity  float64
	Priority      Priority
	Completion    func()
}

// Plan is the resolved motion for a request: the spring (or linear
// fallback), the clamped duration and whether a settling phase will
// run before the completion callback.
type Plan struct {
	Kind     TransitionKind
	Duration time.Duration
	Spring   SpringParams
	Linear   bool
	Settling bool
}

// Task is one queued execution. Owned by the queue; destroyed after
// it runs.
type Task struct {
	ID       uuid.UUID
	Kind     TransitionKind
	Priority Priority
	Run      func()
}

// MomentumState is the decaying residual energy carried between
// chained motions of one kind. Not a physical simulation.
type MomentumState struct {
	Energy   float64
	Velocity float64
}

// Engine computes physics-parameterized motion, adapts fidelity to
// the quality tier and drains a priority task queue.
type Engine interface {
	// Plan resolves a request without scheduling it.
	Plan(req Request) Plan

	// Animate plans the request, records momentum and enqueues the
	// transition. The completion callback fires on the run loop
	// after the transition (and any settling phase) finishes.
	Animate(req Request) Plan

	// Enqueue adds a bare task to the priority queue.
	Enqueue(task Task)

	// StopAll clears active and queued work and all momentum.
	// Continuations already in flight no-op.
	StopAll()

	IsAnimating() bool
	QueuedCount() int
	Momentum(kind TransitionKind) (MomentumState, bool)

	// SetQualityTier and SetReduceMotion are pushed by the
	// coordinator's reactive rules; they affect the next request
	// only.
	SetQualityTier(tier perf.Tier)
	SetReduceMotion(enabled bool)

	Close()
}
