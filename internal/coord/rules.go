package coord

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/metrics"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/perf"
)

// rules is the single consumer of the notification bus. Each wake-up
// drains the pending sources and re-derives the affected rules from
// current state; signals coalesced while pending lose nothing.
func (c *coordinator) rules(sub *notify.Subscription) {
	defer c.wg.Done()

	for {
		select {
		case <-sub.Wake():
			for _, src := range sub.Pending() {
				c.applyRule(src)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *coordinator) applyRule(src notify.Source) {
	switch src {
	case notify.SourcePerformance:
		c.onPerformance()
	case notify.SourceFaults:
		c.onFaults()
	case notify.SourceSettings:
		c.onSettings()
	default:
		// Animation, haptics, audio, announce and cloud state is
		// read on demand; their signals carry no rule.
	}
}

// onPerformance pushes the quality tier into the animation engine,
// drives the ready/degraded status and records a telemetry snapshot
// for the completed window.
func (c *coordinator) onPerformance() {
	tier := c.sampler.QualityTier()
	rate := c.sampler.Rate()
	acceptable := c.sampler.Acceptable()

	c.engine.SetQualityTier(tier)

	c.mu.Lock()
	prev := c.status
	if prev == StatusReady || prev == StatusDegraded {
		if acceptable {
			c.status = StatusReady
		} else {
			c.status = StatusDegraded
		}
	}
	next := c.status
	enteredLow := tier == perf.TierLow && c.lastTier != perf.TierLow
	c.lastTier = tier
	counters := c.counters
	c.mu.Unlock()

	if next != prev {
		logger.Info().
			Str("from", string(prev)).
			Str("to", string(next)).
			Float64("rate", rate).
			Msg("Session status changed")
	}

	if enteredLow {
		c.pipeline.Report(faults.KindPerformanceWarning,
			fmt.Sprintf("frame rate dropped to %.1f fps", rate))
	}

	counts := c.pipeline.Counts()
	snapshot := &metrics.Snapshot{
		Timestamp: time.Now(),
		Frames:    metrics.FrameMetrics{Rate: rate, Tier: string(tier)},
		Animations: metrics.AnimationMetrics{
			Active: boolToInt(c.engine.IsAnimating()),
			Queued: c.engine.QueuedCount(),
		},
		Session: metrics.SessionMetrics{
			TurnsStarted:   counters.TurnsStarted,
			CardsPlayed:    counters.CardsPlayed,
			GamesCompleted: counters.GamesCompleted,
		},
		Faults: metrics.FaultMetrics{
			Total:    counts.Total,
			Blocking: counts.Blocking,
			Critical: counts.Critical,
		},
	}
	if err := c.collector.Record(context.Background(), snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to record telemetry snapshot")
	}
}

// onFaults fires exactly one error haptic cue per new blocking record.
// Only a critical_system_fault ends the session; other critical kinds
// (an accessibility service outage, say) block with recovery choices
// and leave it running.
func (c *coordinator) onFaults() {
	counts := c.pipeline.Counts()

	c.mu.Lock()
	newBlocking := counts.Blocking - c.seenBlocking
	c.seenBlocking = counts.Blocking
	newFatal := counts.Fatal > c.seenFatal
	c.seenFatal = counts.Fatal
	if newFatal {
		c.status = StatusError
	}
	c.mu.Unlock()

	for i := 0; i < newBlocking; i++ {
		c.haptic.Play(feedback.CueError)
	}

	if newFatal {
		logger.Error().
			Int("fatal", counts.Fatal).
			Msg("Critical system fault, session entering terminal error state")
		c.engine.StopAll()
	}
}

// onSettings re-derives every settings-driven gate from the current
// configuration and writes the persisted settings back.
func (c *coordinator) onSettings() {
	c.mu.Lock()
	cfg := *c.cfg
	path := c.cfgPath
	c.mu.Unlock()

	c.haptic.SetEnabled(cfg.Haptics)
	c.haptic.SetLevel(feedback.HapticLevel(cfg.HapticLevel))
	c.audio.SetEnabled(cfg.Sound)
	c.announcer.SetEnabled(cfg.AnnounceGameState)

	c.engine.SetReduceMotion(cfg.ReduceMotion)
	if cfg.ReduceMotion {
		// Accessibility wins immediately: in-flight motion is
		// discarded, not allowed to finish.
		c.engine.StopAll()
		c.haptic.Stop()
	}

	if err := cfg.Save(path); err != nil {
		logger.Debug().Err(err).Msg("Settings write-back skipped")
	}
}

func (c *coordinator) MemoryPressure() {
	s, err := c.session()
	if err != nil {
		return
	}

	logger.Warn().Msg("Memory pressure signalled")

	s.audio.Pause()
	s.engine.StopAll()
	s.cloud.pause()
	// A transient warning: memory pressure is routine on the host and
	// must not raise a blocking modal every time it fires.
	s.pipeline.ReportWithSeverity(faults.KindLowMemory,
		"memory pressure signalled by host", faults.SeverityWarning)
}

func (c *coordinator) MemoryRelieved() {
	s, err := c.session()
	if err != nil {
		return
	}

	s.audio.Resume()
	s.cloud.resume()

	logger.Info().Msg("Memory pressure relieved")
}

func (c *coordinator) SetSound(enabled bool) {
	c.updateSettings(func() bool {
		changed := c.cfg.Sound != enabled
		c.cfg.Sound = enabled
		return changed
	})
}

func (c *coordinator) SetHaptics(enabled bool) {
	c.updateSettings(func() bool {
		changed := c.cfg.Haptics != enabled
		c.cfg.Haptics = enabled
		return changed
	})
}

func (c *coordinator) SetHapticLevel(level feedback.HapticLevel) {
	c.updateSettings(func() bool {
		changed := c.cfg.HapticLevel != string(level)
		c.cfg.HapticLevel = string(level)
		return changed
	})
}

func (c *coordinator) SetReduceMotion(enabled bool) {
	c.updateSettings(func() bool {
		changed := c.cfg.ReduceMotion != enabled
		c.cfg.ReduceMotion = enabled
		return changed
	})
}

func (c *coordinator) SetAnnounceGameState(enabled bool) {
	c.updateSettings(func() bool {
		changed := c.cfg.AnnounceGameState != enabled
		c.cfg.AnnounceGameState = enabled
		return changed
	})
}

// updateSettings applies a mutation under the lock and publishes a
// settings notification when something actually changed.
func (c *coordinator) updateSettings(mutate func() bool) {
	c.mu.Lock()
	changed := mutate()
	bus := c.bus
	c.mu.Unlock()

	if changed && bus != nil {
		bus.Publish(notify.SourceSettings)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
