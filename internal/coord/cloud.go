package coord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
)

// cloudHandle tags the optional cloud collaborator as present or
// absent, so call sites never thread a nil CloudSync around.
type cloudHandle struct {
	mu       sync.Mutex
	attached bool
	sync     CloudSync
}

func (h *cloudHandle) attach(s CloudSync) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.attached = true
	h.sync = s
}

func (h *cloudHandle) present() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.attached
}

func (h *cloudHandle) pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attached {
		h.sync.Pause()
	}
}

func (h *cloudHandle) resume() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attached {
		h.sync.Resume()
	}
}

// attachCloud starts the cloud collaborator off the initialization
// path and consumes its event stream. An attach failure degrades to
// the absent state with a transient notice; the session works without
// cloud sync.
func (c *coordinator) attachCloud(ctx context.Context) {
	defer c.wg.Done()

	if err := c.drivers.Cloud.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("Cloud sync unavailable")
		c.pipeline.Report(faults.KindConnectivityLost,
			fmt.Sprintf("cloud sync attach failed: %v", err))
		return
	}

	c.cloud.attach(c.drivers.Cloud)
	c.bus.Publish(notify.SourceCloud)
	logger.Info().Msg("Cloud sync attached")

	for {
		select {
		case ev, ok := <-c.drivers.Cloud.Events():
			if !ok {
				return
			}
			c.handleCloudEvent(ev)
		case <-c.stop:
			return
		}
	}
}

func (c *coordinator) handleCloudEvent(ev CloudEvent) {
	switch ev.Kind {
	case CloudProgress:
		logger.Debug().Float64("progress", ev.Progress).Msg("Cloud sync progress")
	case CloudConflict:
		if len(ev.Conflicts) == 0 {
			return
		}
		detail := fmt.Sprintf("%d sync conflicts: %s",
			len(ev.Conflicts), strings.Join(ev.Conflicts, ", "))
		if ev.Fatal {
			c.pipeline.Report(faults.KindSaveCorruption, detail)
		} else {
			c.pipeline.ReportWithSeverity(faults.KindSaveCorruption, detail, faults.SeverityWarning)
		}
	case CloudCompletion:
		c.audio.Play(feedback.CueSyncComplete)
		logger.Info().Msg("Cloud sync completed")
	}
}
