package feedback

import (
	"fmt"
	"sync"
	"time"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/runloop"
)

// Haptic plays single cues and short timed cue sequences. Playback
// no-ops when disabled, when the level is off, or when no driver is
// attached.
type Haptic struct {
	mu       sync.Mutex
	loop     *runloop.Loop
	bus      notify.Bus
	tokens   runloop.TokenSource
	driver   Driver
	reporter Reporter

	enabled bool
	level   HapticLevel
}

func NewHaptic(enabled bool, level HapticLevel, driver Driver, loop *runloop.Loop, bus notify.Bus) *Haptic {
	return &Haptic{
		loop:    loop,
		bus:     bus,
		driver:  driver,
		enabled: enabled,
		level:   level,
	}
}

// SetReporter attaches the error pipeline route. Wired by the
// coordinator after the pipeline exists.
func (h *Haptic) SetReporter(r Reporter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reporter = r
}

func (h *Haptic) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.enabled && h.level != LevelOff
}

func (h *Haptic) Level() HapticLevel {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.level
}

func (h *Haptic) SetEnabled(enabled bool) {
	h.mu.Lock()
	changed := h.enabled != enabled
	h.enabled = enabled
	h.mu.Unlock()

	if changed {
		h.bus.Publish(notify.SourceHaptics)
	}
}

func (h *Haptic) SetLevel(level HapticLevel) {
	h.mu.Lock()
	changed := h.level != level
	h.level = level
	h.mu.Unlock()

	if changed {
		h.bus.Publish(notify.SourceHaptics)
	}
}

// Play fires a single cue.
func (h *Haptic) Play(cue Cue) {
	h.mu.Lock()
	driver := h.driver
	reporter := h.reporter
	live := h.enabled && h.level != LevelOff
	h.mu.Unlock()

	if !live || driver == nil {
		return
	}

	if err := driver.Play(cue); err != nil {
		logger.Debug().Err(err).Str("cue", string(cue)).Msg("Haptic playback failed")
		if reporter != nil {
			// The taxonomy has no haptic kind; haptic playback faults
			// share audio_failure, told apart by the "haptic cue"
			// context prefix in history.
			reporter.Report(faults.KindAudioFailure, fmt.Sprintf("haptic cue %s: %v", cue, err))
		}
	}
}

// PlaySequence schedules a timed cue sequence on the run loop. A
// level change to off mid-sequence silences the remaining steps.
func (h *Haptic) PlaySequence(steps []SequenceStep) {
	if !h.Enabled() {
		return
	}

	token := h.tokens.Token()
	for _, step := range steps {
		step := step
		h.loop.After(step.Delay, token, func() {
			h.Play(step.Cue)
		})
	}
}

// Stop cancels any scheduled sequence steps.
func (h *Haptic) Stop() {
	h.tokens.Invalidate()
}

// ShuffleSequence is the 4-step layered shuffle feedback.
func ShuffleSequence() []SequenceStep {
	return []SequenceStep{
		{Delay: 0, Cue: CueShuffle},
		{Delay: 120 * time.Millisecond, Cue: CueShuffle},
		{Delay: 240 * time.Millisecond, Cue: CueShuffle},
		{Delay: 400 * time.Millisecond, Cue: CueCardDeal},
	}
}

// VictorySequence is the 6-step layered victory feedback.
func VictorySequence() []SequenceStep {
	return []SequenceStep{
		{Delay: 0, Cue: CueGameVictory},
		{Delay: 100 * time.Millisecond, Cue: CueTrickWon},
		{Delay: 220 * time.Millisecond, Cue: CueTrickWon},
		{Delay: 360 * time.Millisecond, Cue: CueGameVictory},
		{Delay: 520 * time.Millisecond, Cue: CueTrickWon},
		{Delay: 700 * time.Millisecond, Cue: CueGameVictory},
	}
}
