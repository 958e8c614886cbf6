package feedback

import (
	"time"

	"codeberg.org/verne/gamepulse/internal/faults"
)

// Cue is the fixed feedback vocabulary shared by the haptic and audio
// units.
type Cue string

const (
	CueCardSelect   Cue = "card_select"
	CueCardPlay     Cue = "card_play"
	CueCardDeal     Cue = "card_deal"
	CueTrickWon     Cue = "trick_won"
	CueGameVictory  Cue = "game_victory"
	CueGameDefeat   Cue = "game_defeat"
	CueShuffle      Cue = "shuffle"
	CueTurnStart    Cue = "turn_start"
	CueSyncComplete Cue = "sync_complete"
	CueError        Cue = "error"
)

// HapticLevel gates haptic playback. Off disables haptics globally
// regardless of per-call requests.
type HapticLevel string

const (
	LevelOff    HapticLevel = "off"
	LevelLight  HapticLevel = "light"
	LevelMedium HapticLevel = "medium"
	LevelStrong HapticLevel = "strong"
)

// SequenceStep is one (delay, cue) pair of a timed haptic sequence.
// Delays are relative to the start of the sequence.
type SequenceStep struct {
	Delay time.Duration
	Cue   Cue
}

// Driver plays a single cue on the underlying hardware or mixer.
// Decode and playback live outside this module; a nil driver is valid
// and everything no-ops.
type Driver interface {
	Play(cue Cue) error
}

// AudioDriver additionally supports pausing the mixer under memory
// pressure.
type AudioDriver interface {
	Driver
	Pause() error
	Resume() error
}

// SpeechDriver forwards accessibility announcements to the platform
// screen reader.
type SpeechDriver interface {
	Speak(text string) error
}

// Reporter routes unit failures into the error pipeline instead of
// returning them across the subsystem boundary.
type Reporter interface {
	Report(kind faults.Kind, context string) faults.Record
}
