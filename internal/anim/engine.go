package anim

import (
	"math"
	"sync"
	"time"

	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/perf"
	"codeberg.org/verne/gamepulse/internal/runloop"
	"github.com/google/uuid"
)

// frameGap is the minimum delay between two drained tasks.
const frameGap = 16 * time.Millisecond

type engine struct {
	mu     sync.Mutex
	loop   *runloop.Loop
	bus    notify.Bus
	tokens runloop.TokenSource
	cfg    Config

	tier         perf.Tier
	reduceMotion bool

	queue    taskQueue
	seq      uint64
	active   *queuedItem
	momentum map[TransitionKind]*MomentumState
	closed   bool
}

func NewEngine(cfg Config, loop *runloop.Loop, bus notify.Bus) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &engine{
		loop:     loop,
		bus:      bus,
		cfg:      cfg,
		tier:     perf.TierHigh,
		momentum: make(map[TransitionKind]*MomentumState),
	}, nil
}

func (e *engine) Plan(req Request) Plan {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.planLocked(req)
}

func (e *engine) planLocked(req Request) Plan {
	combined := combinedVelocity(req.StartVelocity, req.DragVelocity, e.cfg.DragWeight)
	magnitude := math.Abs(combined)
	fast := magnitude > e.cfg.VelocityThreshold

	plan := Plan{Kind: req.Kind}

	switch {
	case fast:
		plan.Spring = scaledSpring(momentumFactor(magnitude, e.cfg.VelocityNorm))
	default:
		if preset, ok := heavyPresets[req.Kind]; ok {
			plan.Spring = preset
		} else {
			plan.Spring = defaultSpring()
		}
	}

	base := baseDuration(req.Distance, magnitude, e.cfg.VelocityNorm)

	switch {
	case e.reduceMotion:
		// Accessibility wins over performance adaptation: a
		// minimal fixed-shape substitute at a tenth of the
		// unadapted duration.
		plan.Duration = time.Duration(float64(base) * reduceMotionScale)
		plan.Linear = true
		plan.Spring = SpringParams{}
	case e.tier == perf.TierLow:
		plan.Duration = lowTierDurationMillis * time.Millisecond
		plan.Linear = true
		plan.Spring = SpringParams{}
	case e.tier == perf.TierMedium:
		plan.Duration = time.Duration(float64(base) * mediumDurationScale)
		if _, heavy := heavyPresets[req.Kind]; heavy && !fast {
			plan.Spring = lighterSpring()
		}
	default:
		plan.Duration = base
	}

	if !plan.Linear {
		energy := 0.0
		if m, ok := e.momentum[req.Kind]; ok {
			energy = m.Energy
		}
		if fast {
			energy = math.Max(energy, magnitude/e.cfg.VelocityNorm)
		}
		plan.Settling = energy*e.cfg.MomentumDecay > settleEnergyThreshold
	}

	return plan
}

func (e *engine) Animate(req Request) Plan {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return Plan{Kind: req.Kind}
	}

	plan := e.planLocked(req)

	combined := combinedVelocity(req.StartVelocity, req.DragVelocity, e.cfg.DragWeight)
	magnitude := math.Abs(combined)
	if magnitude > e.cfg.VelocityThreshold {
		m, ok := e.momentum[req.Kind]
		if !ok {
			m = &MomentumState{}
			e.momentum[req.Kind] = m
		}
		m.Velocity = combined
		m.Energy = math.Max(m.Energy, magnitude/e.cfg.VelocityNorm)
	}

	item := &queuedItem{
		task: Task{
			ID:       uuid.New(),
			Kind:     req.Kind,
			Priority: req.Priority,
		},
		plan:       &plan,
		completion: req.Completion,
		seq:        e.nextSeq(),
	}
	e.queue.push(item)
	e.drainLocked()
	e.mu.Unlock()

	e.bus.Publish(notify.SourceAnimation)

	return plan
}

func (e *engine) Enqueue(task Task) {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return
	}

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	e.queue.push(&queuedItem{task: task, seq: e.nextSeq()})
	e.drainLocked()
	e.mu.Unlock()

	e.bus.Publish(notify.SourceAnimation)
}

func (e *engine) nextSeq() uint64 {
	e.seq++
	return e.seq
}

// drainLocked starts the highest-priority queued item unless one is
// already running. Callers hold e.mu.
func (e *engine) drainLocked() {
	if e.active != nil || e.queue.Len() == 0 {
		return
	}

	item := e.queue.pop()
	e.active = item
	token := e.tokens.Token()

	if item.plan == nil {
		e.loop.Do(func() {
			if !token.Live() {
				return
			}
			if item.task.Run != nil {
				item.task.Run()
			}
			e.finish(item)
		})
		return
	}

	e.loop.After(item.plan.Duration, token, func() {
		e.completeTransition(item, token)
	})
}

// completeTransition runs on the loop when a transition's primary
// phase ends: momentum decays, and a settling phase is inserted when
// residual energy remains above the threshold.
func (e *engine) completeTransition(item *queuedItem, token runloop.Token) {
	e.mu.Lock()
	residual := e.decayMomentumLocked(item.task.Kind)
	settle := residual > settleEnergyThreshold && !item.plan.Linear
	e.mu.Unlock()

	if !settle {
		e.finish(item)
		return
	}

	settleDur := time.Duration(settleDurationMillis) * time.Millisecond
	e.mu.Lock()
	if e.reduceMotion {
		settleDur = time.Duration(float64(settleDur) * reduceMotionScale)
	}
	e.mu.Unlock()

	logger.Debug().
		Str("kind", string(item.task.Kind)).
		Float64("residual_energy", residual).
		Msg("Settling transition scheduled")

	e.loop.After(settleDur, token, func() {
		e.finish(item)
	})
}

// decayMomentumLocked applies one completion's decay to the kind's
// momentum and returns the residual energy. Callers hold e.mu.
func (e *engine) decayMomentumLocked(kind TransitionKind) float64 {
	m, ok := e.momentum[kind]
	if !ok {
		return 0
	}

	m.Energy *= e.cfg.MomentumDecay
	if m.Energy < momentumFloor {
		delete(e.momentum, kind)
		return 0
	}

	return m.Energy
}

// finish fires the completion callback, releases the active slot and
// schedules the next drain after the inter-task gap.
func (e *engine) finish(item *queuedItem) {
	if item.completion != nil {
		item.completion()
	}

	e.mu.Lock()
	if e.active == item {
		e.active = nil
	}
	next := e.tokens.Token()
	e.mu.Unlock()

	e.bus.Publish(notify.SourceAnimation)

	e.loop.After(frameGap, next, func() {
		e.mu.Lock()
		e.drainLocked()
		e.mu.Unlock()
	})
}

func (e *engine) StopAll() {
	e.tokens.Invalidate()

	e.mu.Lock()
	e.queue.clear()
	e.active = nil
	e.momentum = make(map[TransitionKind]*MomentumState)
	e.mu.Unlock()

	logger.Debug().Msg("All animations stopped")
	e.bus.Publish(notify.SourceAnimation)
}

func (e *engine) IsAnimating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.active != nil || e.queue.Len() > 0
}

func (e *engine) QueuedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.queue.Len()
}

func (e *engine) Momentum(kind TransitionKind) (MomentumState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.momentum[kind]
	if !ok {
		return MomentumState{}, false
	}

	return *m, true
}

func (e *engine) SetQualityTier(tier perf.Tier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tier = tier
}

func (e *engine) SetReduceMotion(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reduceMotion = enabled
}

func (e *engine) Close() {
	e.tokens.Invalidate()

	e.mu.Lock()
	e.closed = true
	e.queue.clear()
	e.active = nil
	e.mu.Unlock()
}
