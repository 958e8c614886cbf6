package anim

import "codeberg.org/verne/gamepulse/internal/errors"

// Feel constants. Hand-tuned; preserved as configuration defaults
// rather than hard-coded values.
const (
	defaultDragWeight        = 0.7
	defaultMomentumDecay     = 0.85
	defaultVelocityNorm      = 1000.0
	defaultVelocityThreshold = 50.0
)

type Config struct {
	DragWeight        float64
	MomentumDecay     float64
	VelocityNorm      float64
	VelocityThreshold float64
}

func DefaultConfig() Config {
	return Config{
		DragWeight:        defaultDragWeight,
		MomentumDecay:     defaultMomentumDecay,
		VelocityNorm:      defaultVelocityNorm,
		VelocityThreshold: defaultVelocityThreshold,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.VelocityNorm <= 0 {
		return errFactory.New(ErrInvalidVelocityNorm)
	}

	if c.MomentumDecay <= 0 || c.MomentumDecay >= 1 {
		return errFactory.New(ErrInvalidMomentumDecay)
	}

	if c.VelocityThreshold < 0 || c.DragWeight < 0 {
		return errFactory.New(errors.ErrInvalidConfig)
	}

	return nil
}
