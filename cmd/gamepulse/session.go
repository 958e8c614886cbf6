package main

import (
	"context"
	"time"

	"codeberg.org/verne/gamepulse/internal/config"
	"codeberg.org/verne/gamepulse/internal/coord"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/logger"
)

// consoleDriver stands in for the platform playback hardware: every
// cue and announcement becomes a log line.
type consoleDriver struct {
	unit string
}

func (d *consoleDriver) Play(cue feedback.Cue) error {
	logger.Info().Str("unit", d.unit).Str("cue", string(cue)).Msg("Feedback cue")
	return nil
}

func (d *consoleDriver) Pause() error {
	logger.Info().Str("unit", d.unit).Msg("Mixer paused")
	return nil
}

func (d *consoleDriver) Resume() error {
	logger.Info().Str("unit", d.unit).Msg("Mixer resumed")
	return nil
}

func (d *consoleDriver) Speak(text string) error {
	logger.Info().Str("unit", d.unit).Str("text", text).Msg("Announcement")
	return nil
}

// simCloud emits a short scripted sync: a few progress events and a
// completion.
type simCloud struct {
	events chan coord.CloudEvent
}

func newSimCloud() *simCloud {
	return &simCloud{events: make(chan coord.CloudEvent, 8)}
}

func (s *simCloud) Start(_ context.Context) error {
	go func() {
		for _, p := range []float64{0.25, 0.5, 0.75} {
			time.Sleep(500 * time.Millisecond)
			s.events <- coord.CloudEvent{Kind: coord.CloudProgress, Progress: p}
		}
		time.Sleep(500 * time.Millisecond)
		s.events <- coord.CloudEvent{Kind: coord.CloudCompletion}
	}()

	return nil
}

func (s *simCloud) Pause()  {}
func (s *simCloud) Resume() {}

func (s *simCloud) Events() <-chan coord.CloudEvent {
	return s.events
}

var scriptedHand = []coord.Card{
	{Rank: "ace", Suit: "hearts"},
	{Rank: "ten", Suit: "spades"},
	{Rank: "queen", Suit: "diamonds"},
	{Rank: "four", Suit: "clubs"},
	{Rank: "king", Suit: "hearts"},
}

func runSession(ctx context.Context, cfg *config.Config, opts *options) error {
	drivers := coord.Drivers{
		Haptic: &consoleDriver{unit: "haptic"},
		Audio:  &consoleDriver{unit: "audio"},
		Speech: &consoleDriver{unit: "speech"},
	}
	if opts.cloud {
		drivers.Cloud = newSimCloud()
	}

	c := coord.New(cfg, "", drivers)
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Shutdown(); err != nil {
			logger.Warn().Err(err).Msg("Shutdown reported an error")
		}
	}()

	if err := c.StartGame(); err != nil {
		return err
	}

	frameInterval := time.Duration(float64(time.Second) / opts.fps)
	frames := time.NewTicker(frameInterval)
	defer frames.Stop()
	turns := time.NewTicker(2 * time.Second)
	defer turns.Stop()
	status := time.NewTicker(time.Second)
	defer status.Stop()
	deadline := time.After(time.Duration(opts.duration) * time.Second)

	cardIndex := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			if err := c.CompleteGame(coord.OutcomeVictory); err != nil {
				return err
			}
			// Let the victory sequence and animation play out.
			time.Sleep(time.Second)
			return nil
		case now := <-frames.C:
			c.RecordFrame(now)
		case <-turns.C:
			if err := c.StartTurn(); err != nil {
				return err
			}
			card := scriptedHand[cardIndex%len(scriptedHand)]
			cardIndex++
			// Every fifth play is an out-of-turn mistake.
			if err := c.PlayCard(card, cardIndex%5 != 0); err != nil {
				return err
			}
		case <-status.C:
			logger.Info().
				Str("status", string(c.Status())).
				Str("tier", string(c.QualityTier())).
				Float64("rate", c.FrameRate()).
				Bool("animating", c.IsAnimating()).
				Bool("cloud", c.CloudAttached()).
				Interface("counters", c.Counters()).
				Msg("Session status")
		}
	}
}
