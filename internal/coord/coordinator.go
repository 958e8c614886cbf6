// Package coord is the composition root of the runtime layer. The
// coordinator builds the subsystem leaves in a fixed order, consumes
// their change notifications and re-derives the cross-subsystem rules
// from current state, so a lost intermediate signal cannot leave the
// graph stale.
package coord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/verne/gamepulse/internal/anim"
	"codeberg.org/verne/gamepulse/internal/config"
	"codeberg.org/verne/gamepulse/internal/errors"
	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/metrics"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/perf"
	"codeberg.org/verne/gamepulse/internal/runloop"
)

const subscriberID = "coordinator"

type coordinator struct {
	mu      sync.Mutex
	cfg     *config.Config
	cfgPath string
	drivers Drivers

	loop      *runloop.Loop
	bus       notify.Bus
	sampler   perf.Sampler
	pipeline  faults.Pipeline
	haptic    *feedback.Haptic
	audio     *feedback.Audio
	announcer *feedback.Announcer
	engine    anim.Engine
	collector metrics.Collector
	cloud     *cloudHandle

	status   Status
	counters Counters
	lastTier perf.Tier

	// Watermarks against pipeline counts; the delta since the last
	// faults notification drives the one-cue-per-record rule, and the
	// fatal watermark the terminal transition.
	seenBlocking int
	seenFatal    int

	stop        chan struct{}
	wg          sync.WaitGroup
	initialized bool
}

// New builds an uninitialized coordinator. cfgPath is where changed
// settings are written back; empty falls back to the GAMEPULSE_CONFIG
// environment variable.
func New(cfg *config.Config, cfgPath string, drivers Drivers) Coordinator {
	return &coordinator{
		cfg:      cfg,
		cfgPath:  cfgPath,
		drivers:  drivers,
		cloud:    &cloudHandle{},
		status:   StatusInitializing,
		lastTier: perf.TierHigh,
	}
}

func (c *coordinator) Initialize(ctx context.Context) error {
	// A re-Initialize replaces the previous session, including one
	// left partially built by a failed startup.
	if c.isInitialized() {
		if err := c.Shutdown(); err != nil {
			logger.Warn().Err(err).Msg("Shutdown of previous session failed")
		}
	} else {
		c.teardown()
	}

	c.mu.Lock()
	c.status = StatusInitializing
	c.counters = Counters{}
	c.lastTier = perf.TierHigh
	c.seenBlocking = 0
	c.seenFatal = 0
	cfg := *c.cfg
	c.loop = runloop.New()
	c.bus = notify.New()
	loop, bus := c.loop, c.bus
	c.mu.Unlock()

	logger.Info().Msg("Initializing coordination layer")

	sampler, err := perf.NewSampler(perf.Config{WindowMs: cfg.FrameWindowMs}, loop, bus)
	if err != nil {
		return c.failInit("telemetry sampler", err)
	}
	c.setLeaf(func() { c.sampler = sampler })

	faultsCfg := faults.Config{DebounceMs: cfg.DisplayDebounceMs}
	if cfg.Telemetry {
		faultsCfg.DBPath = cfg.TelemetryDB
	}
	pipeline, err := faults.NewPipeline(faultsCfg, loop, bus)
	if err != nil {
		return c.failInit("error pipeline", err)
	}
	c.setLeaf(func() { c.pipeline = pipeline })

	haptic := feedback.NewHaptic(cfg.Haptics, feedback.HapticLevel(cfg.HapticLevel), c.drivers.Haptic, loop, bus)
	haptic.SetReporter(pipeline)
	audio := feedback.NewAudio(cfg.Sound, c.drivers.Audio, bus)
	audio.SetReporter(pipeline)
	announcer := feedback.NewAnnouncer(cfg.AnnounceGameState, c.drivers.Speech, bus)
	announcer.SetReporter(pipeline)
	c.setLeaf(func() {
		c.haptic = haptic
		c.audio = audio
		c.announcer = announcer
	})

	engine, err := anim.NewEngine(anim.Config{
		DragWeight:        cfg.DragWeight,
		MomentumDecay:     cfg.MomentumDecay,
		VelocityNorm:      cfg.VelocityNorm,
		VelocityThreshold: cfg.VelocityThreshold,
	}, loop, bus)
	if err != nil {
		return c.failInit("animation engine", err)
	}
	engine.SetReduceMotion(cfg.ReduceMotion)
	c.setLeaf(func() { c.engine = engine })

	collector, err := metrics.NewService(metrics.Config{
		Enabled:      cfg.Telemetry,
		DBPath:       cfg.TelemetryDB,
		BatchSize:    metrics.DefaultConfig().BatchSize,
		BatchTimeout: metrics.DefaultConfig().BatchTimeout,
	}, logger.Default())
	if err != nil {
		return c.failInit("telemetry collector", err)
	}
	c.setLeaf(func() { c.collector = collector })

	sub, err := bus.Subscribe(subscriberID)
	if err != nil {
		return c.failInit("notification bus", err)
	}

	c.mu.Lock()
	c.cloud = &cloudHandle{}
	c.stop = make(chan struct{})
	c.status = StatusReady
	c.initialized = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.rules(sub)

	// The cloud collaborator attaches asynchronously; the session is
	// usable before (and without) it.
	if c.drivers.Cloud != nil {
		c.wg.Add(1)
		go c.attachCloud(ctx)
	}

	logger.Info().
		Bool("telemetry", cfg.Telemetry).
		Bool("cloud", c.drivers.Cloud != nil).
		Msg("Coordination layer ready")

	return nil
}

func (c *coordinator) setLeaf(assign func()) {
	c.mu.Lock()
	assign()
	c.mu.Unlock()
}

// failInit marks the session terminally failed. The partial stack is
// kept so the critical fault record stays inspectable; the next
// Initialize tears it down.
func (c *coordinator) failInit(subsystem string, err error) error {
	errFactory := errors.New()

	c.mu.Lock()
	c.status = StatusError
	pipeline := c.pipeline
	c.mu.Unlock()

	if pipeline != nil {
		pipeline.Report(faults.KindCriticalSystemFault,
			fmt.Sprintf("%s failed to initialize: %v", subsystem, err))
	}

	wrapped := errFactory.Wrap(ErrInitSubsystem, err).WithData(subsystem)
	logger.ErrorWithCode(wrapped).Msg("Subsystem initialization failed")

	return wrapped
}

// teardown closes whatever leaves exist. Goroutines must already be
// stopped.
func (c *coordinator) teardown() {
	c.mu.Lock()
	engine, pipeline, collector := c.engine, c.pipeline, c.collector
	bus, loop := c.bus, c.loop
	c.sampler = nil
	c.pipeline = nil
	c.haptic = nil
	c.audio = nil
	c.announcer = nil
	c.engine = nil
	c.collector = nil
	c.bus = nil
	c.loop = nil
	c.mu.Unlock()

	if engine != nil {
		engine.Close()
	}
	if pipeline != nil {
		if err := pipeline.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error pipeline close failed")
		}
	}
	if collector != nil {
		if err := collector.Close(); err != nil {
			logger.Warn().Err(err).Msg("Telemetry collector close failed")
		}
	}
	if bus != nil {
		bus.Close()
	}
	if loop != nil {
		loop.Stop()
	}
}

func (c *coordinator) isInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialized
}

// leaves is a consistent snapshot of the subsystem handles, taken
// together with the status check so a racing shutdown cannot pull a
// handle out from under a composite operation.
type leaves struct {
	pipeline  faults.Pipeline
	haptic    *feedback.Haptic
	audio     *feedback.Audio
	announcer *feedback.Announcer
	engine    anim.Engine
	cloud     *cloudHandle
}

// session rejects composite operations outside the ready/degraded
// states. A terminal error requires a new Initialize.
func (c *coordinator) session() (leaves, error) {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.status == StatusError:
		return leaves{}, errFactory.New(ErrSessionTerminal)
	case !c.initialized || c.status == StatusInitializing:
		return leaves{}, errFactory.New(ErrNotReady)
	}

	return leaves{
		pipeline:  c.pipeline,
		haptic:    c.haptic,
		audio:     c.audio,
		announcer: c.announcer,
		engine:    c.engine,
		cloud:     c.cloud,
	}, nil
}

func (c *coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *coordinator) CurrentError() (faults.Record, bool) {
	c.mu.Lock()
	pipeline := c.pipeline
	c.mu.Unlock()

	if pipeline == nil {
		return faults.Record{}, false
	}

	return pipeline.Displaying()
}

func (c *coordinator) LatestNotice() (faults.Notice, bool) {
	c.mu.Lock()
	pipeline := c.pipeline
	c.mu.Unlock()

	if pipeline == nil {
		return faults.Notice{}, false
	}

	return pipeline.LatestNotice()
}

func (c *coordinator) QualityTier() perf.Tier {
	c.mu.Lock()
	sampler := c.sampler
	c.mu.Unlock()

	if sampler == nil {
		return perf.TierHigh
	}

	return sampler.QualityTier()
}

func (c *coordinator) FrameRate() float64 {
	c.mu.Lock()
	sampler := c.sampler
	c.mu.Unlock()

	if sampler == nil {
		return 0
	}

	return sampler.Rate()
}

func (c *coordinator) IsAnimating() bool {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()

	if engine == nil {
		return false
	}

	return engine.IsAnimating()
}

func (c *coordinator) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counters
}

func (c *coordinator) CloudAttached() bool {
	c.mu.Lock()
	cloud := c.cloud
	c.mu.Unlock()

	if cloud == nil {
		return false
	}

	return cloud.present()
}

func (c *coordinator) RecordFrame(now time.Time) {
	c.mu.Lock()
	sampler := c.sampler
	c.mu.Unlock()

	if sampler == nil {
		return
	}

	sampler.RecordFrame(now)
}

func (c *coordinator) ResolveError(action faults.RecoveryAction, recovered bool) error {
	s, err := c.session()
	if err != nil {
		return err
	}

	return s.pipeline.Resolve(action, recovered)
}

func (c *coordinator) Shutdown() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		c.teardown()
		return nil
	}
	c.initialized = false
	stop := c.stop
	c.mu.Unlock()

	close(stop)
	c.wg.Wait()
	c.teardown()

	logger.Info().Msg("Coordination layer shut down")

	return nil
}
