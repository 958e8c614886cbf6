package coord

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/perf"
)

// Status is the coordinator lifecycle state. Error is terminal until a
// new Initialize.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusReady        Status = "ready"
	StatusDegraded     Status = "degraded"
	StatusError        Status = "error"
)

// Card identifies one playing card for announcements and logging.
type Card struct {
	Rank string
	Suit string
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Outcome is the result of a completed game.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

// Counters tallies the composite operations of the session.
type Counters struct {
	TurnsStarted   int
	CardsPlayed    int
	GamesCompleted int
}

// CloudEventKind tags incoming cloud-sync events.
type CloudEventKind string

const (
	CloudProgress   CloudEventKind = "progress"
	CloudConflict   CloudEventKind = "conflict"
	CloudCompletion CloudEventKind = "completion"
)

// CloudEvent is one sync progress, conflict or completion report from
// the cloud collaborator. The sync protocol itself lives outside this
// module.
type CloudEvent struct {
	Kind      CloudEventKind
	Progress  float64
	Conflicts []string
	Fatal     bool
}

// CloudSync is the boundary to the optional cloud-save collaborator.
type CloudSync interface {
	Start(ctx context.Context) error
	Pause()
	Resume()
	Events() <-chan CloudEvent
}

// Drivers collects the platform playback collaborators injected by the
// host. Any of them may be nil; the owning unit then no-ops.
type Drivers struct {
	Haptic feedback.Driver
	Audio  feedback.AudioDriver
	Speech feedback.SpeechDriver
	Cloud  CloudSync
}

// Coordinator owns the subsystem leaves, runs the reactive propagation
// rules between them and exposes the composite game operations.
type Coordinator interface {
	// Initialize builds the leaves in fixed order. A startup failure
	// becomes a critical fault record and a terminal error status.
	Initialize(ctx context.Context) error

	// Composite operations: unconditional fan-out in the order
	// audio, haptic, announcement, animation, telemetry. A failed
	// step is reported and the remaining steps still run.
	StartGame() error
	StartTurn() error
	PlayCard(card Card, isValid bool) error
	CompleteGame(outcome Outcome) error

	// RecordFrame feeds the telemetry sampler from the host render
	// loop.
	RecordFrame(now time.Time)

	// MemoryPressure applies the memory-pressure rule: audio and
	// cloud sync pause, animations halt, a low-memory warning notice
	// is posted. MemoryRelieved resumes audio and cloud sync.
	MemoryPressure()
	MemoryRelieved()

	// ResolveError resolves the currently displaying fault record.
	ResolveError(action faults.RecoveryAction, recovered bool) error

	// Persisted settings. Changes propagate through the reactive
	// rules and are written back to the config file.
	SetSound(enabled bool)
	SetHaptics(enabled bool)
	SetHapticLevel(level feedback.HapticLevel)
	SetReduceMotion(enabled bool)
	SetAnnounceGameState(enabled bool)

	Status() Status
	CurrentError() (faults.Record, bool)
	LatestNotice() (faults.Notice, bool)
	QualityTier() perf.Tier
	FrameRate() float64
	IsAnimating() bool
	Counters() Counters
	CloudAttached() bool

	Shutdown() error
}
