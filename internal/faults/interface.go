package faults

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed failure taxonomy. Every subsystem reports one of
// these instead of throwing across boundaries.
type Kind string

const (
	KindInvalidMove          Kind = "invalid_move"
	KindGameStateCorruption  Kind = "game_state_corruption"
	KindAIFailure            Kind = "ai_failure"
	KindSaveCorruption       Kind = "save_corruption"
	KindPerformanceWarning   Kind = "performance_warning"
	KindConnectivityLost     Kind = "connectivity_lost"
	KindLowMemory            Kind = "low_memory"
	KindAccessibilityFailure Kind = "accessibility_service_failure"
	KindAudioFailure         Kind = "audio_failure"
	KindAnimationFailure     Kind = "animation_failure"
	KindCriticalSystemFault  Kind = "critical_system_fault"
)

// Kinds lists the full taxonomy.
func Kinds() []Kind {
	return []Kind{
		KindInvalidMove,
		KindGameStateCorruption,
		KindAIFailure,
		KindSaveCorruption,
		KindPerformanceWarning,
		KindConnectivityLost,
		KindLowMemory,
		KindAccessibilityFailure,
		KindAudioFailure,
		KindAnimationFailure,
		KindCriticalSystemFault,
	}
}

// Severity controls display and queue behavior.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityTable = map[Kind]Severity{
	KindInvalidMove:          SeverityInfo,
	KindGameStateCorruption:  SeverityError,
	KindSaveCorruption:       SeverityError,
	KindAIFailure:            SeverityError,
	KindLowMemory:            SeverityError,
	KindCriticalSystemFault:  SeverityCritical,
	KindAccessibilityFailure: SeverityCritical,
}

// SeverityFor returns the table-defined severity for a kind. Kinds
// absent from the table classify as warning.
func SeverityFor(kind Kind) Severity {
	if severity, ok := severityTable[kind]; ok {
		return severity
	}

	return SeverityWarning
}

// Blocking reports whether records of this severity enter the display
// queue. Info and warning surface as transient notices only.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// RecoveryAction is one choice offered to the user for a blocking
// record. Executing the chosen action is the host's responsibility.
type RecoveryAction string

const (
	ActionDismiss       RecoveryAction = "dismiss"
	ActionRetry         RecoveryAction = "retry"
	ActionRestartGame   RecoveryAction = "restart_game"
	ActionReturnToMenu  RecoveryAction = "return_to_menu"
	ActionClearSaveData RecoveryAction = "clear_save_data"
	ActionReduceEffects RecoveryAction = "reduce_effects"
	ActionCloseApp      RecoveryAction = "close_app"
)

var recoveryTable = map[Kind][]RecoveryAction{
	KindInvalidMove:          {ActionDismiss},
	KindGameStateCorruption:  {ActionRestartGame, ActionReturnToMenu},
	KindAIFailure:            {ActionRetry, ActionReturnToMenu},
	KindSaveCorruption:       {ActionClearSaveData, ActionReturnToMenu},
	KindPerformanceWarning:   {ActionReduceEffects, ActionCloseApp},
	KindConnectivityLost:     {ActionRetry, ActionDismiss},
	KindLowMemory:            {ActionReduceEffects, ActionCloseApp},
	KindAccessibilityFailure: {ActionRetry, ActionCloseApp},
	KindAudioFailure:         {ActionDismiss},
	KindAnimationFailure:     {ActionReduceEffects, ActionDismiss},
	KindCriticalSystemFault:  {ActionCloseApp},
}

// RecoveryActions returns the fixed, ordered action list for a kind.
func RecoveryActions(kind Kind) []RecoveryAction {
	actions := recoveryTable[kind]
	out := make([]RecoveryAction, len(actions))
	copy(out, actions)

	return out
}

// Status tracks a record through the pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDisplaying Status = "displaying"
	StatusResolved   Status = "resolved"
	StatusLogged     Status = "logged"
)

// Record is one reported failure. Immutable after creation except for
// Recovered, ChosenAction and Status, set exactly once on resolution.
type Record struct {
	ID           uuid.UUID
	Kind         Kind
	Severity     Severity
	Context      string
	Timestamp    time.Time
	Status       Status
	Recovered    bool
	ChosenAction RecoveryAction
}

// Notice is the transient, non-blocking surface for info and warning
// reports.
type Notice struct {
	Kind      Kind
	Severity  Severity
	Context   string
	Timestamp time.Time
}

// Counts summarizes the pipeline state read by the coordinator.
// Critical counts every critical-severity record; Fatal counts only
// critical_system_fault records, the single kind that ends a session.
type Counts struct {
	Total    int
	Blocking int
	Critical int
	Fatal    int
}

// Pipeline classifies, queues and resolves failure reports. At most
// one record is displaying at any time; the displayed record is never
// silently replaced.
type Pipeline interface {
	Report(kind Kind, context string) Record
	ReportWithSeverity(kind Kind, context string, severity Severity) Record
	Resolve(action RecoveryAction, recovered bool) error

	Displaying() (Record, bool)
	LatestNotice() (Notice, bool)
	QueueLength() int
	History() []Record
	Counts() Counts

	Close() error
}
