package metrics

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for session telemetry storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Snapshot is one sampled view of the session, taken at frame-window
// boundaries.
type Snapshot struct {
	Timestamp  time.Time
	Frames     FrameMetrics
	Animations AnimationMetrics
	Session    SessionMetrics
	Faults     FaultMetrics
}

// Domain value objects
type FrameMetrics struct {
	Rate float64
	Tier string
}

type AnimationMetrics struct {
	Active int
	Queued int
}

type SessionMetrics struct {
	TurnsStarted   int
	CardsPlayed    int
	GamesCompleted int
}

type FaultMetrics struct {
	Total    int
	Blocking int
	Critical int
}
