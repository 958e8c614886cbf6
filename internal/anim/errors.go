package anim

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrInvalidVelocityNorm  = errors.ErrorCode("anim_invalid_velocity_norm")
	ErrInvalidMomentumDecay = errors.ErrorCode("anim_invalid_momentum_decay")
)
