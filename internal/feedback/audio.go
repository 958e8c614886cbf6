package feedback

import (
	"fmt"
	"sync"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
)

// Audio plays sound cues and can be paused under memory pressure.
// Playback no-ops when disabled, paused, or when no driver is
// attached.
type Audio struct {
	mu       sync.Mutex
	bus      notify.Bus
	driver   AudioDriver
	reporter Reporter

	enabled bool
	paused  bool
}

func NewAudio(enabled bool, driver AudioDriver, bus notify.Bus) *Audio {
	return &Audio{
		bus:     bus,
		driver:  driver,
		enabled: enabled,
	}
}

// SetReporter attaches the error pipeline route. Wired by the
// coordinator after the pipeline exists.
func (a *Audio) SetReporter(r Reporter) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reporter = r
}

func (a *Audio) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.enabled
}

func (a *Audio) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.paused
}

func (a *Audio) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		a.bus.Publish(notify.SourceAudio)
	}
}

// Play fires a single sound cue.
func (a *Audio) Play(cue Cue) {
	a.mu.Lock()
	driver := a.driver
	reporter := a.reporter
	live := a.enabled && !a.paused
	a.mu.Unlock()

	if !live || driver == nil {
		return
	}

	if err := driver.Play(cue); err != nil {
		logger.Debug().Err(err).Str("cue", string(cue)).Msg("Audio playback failed")
		if reporter != nil {
			reporter.Report(faults.KindAudioFailure, fmt.Sprintf("audio cue %s: %v", cue, err))
		}
	}
}

// Pause suspends the mixer. Used under memory pressure; a pause while
// already paused is a no-op.
func (a *Audio) Pause() {
	a.mu.Lock()
	driver := a.driver
	reporter := a.reporter
	already := a.paused
	a.paused = true
	a.mu.Unlock()

	if already {
		return
	}

	if driver != nil {
		if err := driver.Pause(); err != nil {
			logger.Debug().Err(err).Msg("Audio pause failed")
			if reporter != nil {
				reporter.Report(faults.KindAudioFailure, fmt.Sprintf("pause mixer: %v", err))
			}
		}
	}

	a.bus.Publish(notify.SourceAudio)
}

// Resume restarts the mixer after a pause.
func (a *Audio) Resume() {
	a.mu.Lock()
	driver := a.driver
	reporter := a.reporter
	already := !a.paused
	a.paused = false
	a.mu.Unlock()

	if already {
		return
	}

	if driver != nil {
		if err := driver.Resume(); err != nil {
			logger.Debug().Err(err).Msg("Audio resume failed")
			if reporter != nil {
				reporter.Report(faults.KindAudioFailure, fmt.Sprintf("resume mixer: %v", err))
			}
		}
	}

	a.bus.Publish(notify.SourceAudio)
}
