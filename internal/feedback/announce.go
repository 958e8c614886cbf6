package feedback

import (
	"fmt"
	"sync"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
)

// Announcer forwards game-state text to the platform screen reader.
// Announcements no-op when the announce-game-state setting is off or
// when no driver is attached.
type Announcer struct {
	mu       sync.Mutex
	bus      notify.Bus
	driver   SpeechDriver
	reporter Reporter

	enabled bool
}

func NewAnnouncer(enabled bool, driver SpeechDriver, bus notify.Bus) *Announcer {
	return &Announcer{
		bus:     bus,
		driver:  driver,
		enabled: enabled,
	}
}

// SetReporter attaches the error pipeline route. Wired by the
// coordinator after the pipeline exists.
func (n *Announcer) SetReporter(r Reporter) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.reporter = r
}

func (n *Announcer) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.enabled
}

func (n *Announcer) SetEnabled(enabled bool) {
	n.mu.Lock()
	changed := n.enabled != enabled
	n.enabled = enabled
	n.mu.Unlock()

	if changed {
		n.bus.Publish(notify.SourceAnnounce)
	}
}

// Announce speaks one line of game-state text.
func (n *Announcer) Announce(text string) {
	n.mu.Lock()
	driver := n.driver
	reporter := n.reporter
	live := n.enabled
	n.mu.Unlock()

	if !live || driver == nil || text == "" {
		return
	}

	if err := driver.Speak(text); err != nil {
		logger.Debug().Err(err).Str("text", text).Msg("Announcement failed")
		if reporter != nil {
			reporter.Report(faults.KindAccessibilityFailure, fmt.Sprintf("announce %q: %v", text, err))
		}
	}
}
