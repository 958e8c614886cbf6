package perf

import (
	"time"

	"codeberg.org/verne/gamepulse/internal/errors"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/runloop"
)

type Config struct {
	WindowMs int
}

func DefaultConfig() Config {
	return Config{WindowMs: 1000}
}

func (c Config) Validate() error {
	if c.WindowMs <= 0 {
		return errors.New().New(ErrInvalidWindow)
	}
	return nil
}

// Memory is bounded by construction: one counter and one window start,
// no per-frame history.
type sampler struct {
	loop *runloop.Loop
	bus  notify.Bus

	window      time.Duration
	windowStart time.Time
	frames      int

	rate float64
	tier Tier
}

func NewSampler(cfg Config, loop *runloop.Loop, bus notify.Bus) (Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &sampler{
		loop:   loop,
		bus:    bus,
		window: time.Duration(cfg.WindowMs) * time.Millisecond,
		tier:   TierHigh,
	}, nil
}

func (s *sampler) RecordFrame(now time.Time) {
	s.loop.Do(func() {
		s.recordFrame(now)
	})
}

func (s *sampler) recordFrame(now time.Time) {
	if s.windowStart.IsZero() {
		s.windowStart = now
		s.frames = 0
		return
	}

	s.frames++

	elapsed := now.Sub(s.windowStart)
	if elapsed < s.window {
		return
	}

	rate := float64(s.frames) / elapsed.Seconds()
	tier := TierForRate(rate)

	changed := rate != s.rate || tier != s.tier
	if tier != s.tier {
		logger.Info().
			Float64("rate", rate).
			Str("tier", string(tier)).
			Str("previous_tier", string(s.tier)).
			Msg("Quality tier changed")
	}

	s.rate = rate
	s.tier = tier
	s.windowStart = now
	s.frames = 0

	if changed {
		s.bus.Publish(notify.SourcePerformance)
	}
}

func (s *sampler) Rate() float64 {
	var rate float64
	s.loop.Sync(func() { rate = s.rate })
	return rate
}

func (s *sampler) QualityTier() Tier {
	var tier Tier
	s.loop.Sync(func() { tier = s.tier })
	return tier
}

func (s *sampler) Acceptable() bool {
	return s.QualityTier() != TierLow
}

func (s *sampler) Reset() {
	s.loop.Do(func() {
		s.windowStart = time.Time{}
		s.frames = 0
	})
}
