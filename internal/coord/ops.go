package coord

import (
	"fmt"

	"codeberg.org/verne/gamepulse/internal/anim"
	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/feedback"
	"codeberg.org/verne/gamepulse/internal/logger"
)

// Representative motion distances in points for the host-independent
// composite operations.
const (
	shuffleDistance   = 240.0
	turnStartDistance = 120.0
	cardPlayDistance  = 160.0
	victoryDistance   = 320.0
)

// Composite operations fan out in a fixed order: audio cue, haptic
// cue, accessibility announcement, animation request, telemetry
// counter. Individual step failures are reported to the error pipeline
// by the owning unit; the remaining steps always run.

func (c *coordinator) StartGame() error {
	s, err := c.session()
	if err != nil {
		return err
	}

	s.audio.Play(feedback.CueShuffle)
	s.haptic.PlaySequence(feedback.ShuffleSequence())
	s.announcer.Announce("Shuffling and dealing")
	s.engine.Animate(anim.Request{
		Kind:     anim.KindShuffle,
		Distance: shuffleDistance,
		Priority: anim.PriorityHigh,
	})

	logger.Debug().Msg("Game started")

	return nil
}

func (c *coordinator) StartTurn() error {
	s, err := c.session()
	if err != nil {
		return err
	}

	s.audio.Play(feedback.CueTurnStart)
	s.haptic.Play(feedback.CueTurnStart)
	s.announcer.Announce("Your turn")
	s.engine.Animate(anim.Request{
		Kind:     anim.KindTurnStart,
		Distance: turnStartDistance,
		Priority: anim.PriorityNormal,
	})

	c.mu.Lock()
	c.counters.TurnsStarted++
	c.mu.Unlock()

	return nil
}

func (c *coordinator) PlayCard(card Card, isValid bool) error {
	s, err := c.session()
	if err != nil {
		return err
	}

	if !isValid {
		s.pipeline.Report(faults.KindInvalidMove, fmt.Sprintf("cannot play %s", card))
		return nil
	}

	s.audio.Play(feedback.CueCardPlay)
	s.haptic.Play(feedback.CueCardPlay)
	s.announcer.Announce(fmt.Sprintf("Played %s", card))
	s.engine.Animate(anim.Request{
		Kind:     anim.KindCardPlay,
		Distance: cardPlayDistance,
		Priority: anim.PriorityNormal,
	})

	c.mu.Lock()
	c.counters.CardsPlayed++
	c.mu.Unlock()

	return nil
}

func (c *coordinator) CompleteGame(outcome Outcome) error {
	s, err := c.session()
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomeVictory:
		s.audio.Play(feedback.CueGameVictory)
		s.haptic.PlaySequence(feedback.VictorySequence())
		s.announcer.Announce("You won the game")
		s.engine.Animate(anim.Request{
			Kind:     anim.KindVictory,
			Distance: victoryDistance,
			Priority: anim.PriorityCritical,
		})
	default:
		s.audio.Play(feedback.CueGameDefeat)
		s.haptic.Play(feedback.CueGameDefeat)
		s.announcer.Announce("Game over")
		s.engine.Animate(anim.Request{
			Kind:     anim.KindTrickCollect,
			Distance: cardPlayDistance,
			Priority: anim.PriorityHigh,
		})
	}

	c.mu.Lock()
	c.counters.GamesCompleted++
	c.mu.Unlock()

	logger.Info().Str("outcome", string(outcome)).Msg("Game completed")

	return nil
}
