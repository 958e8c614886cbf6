package coord

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrInitSubsystem   = errors.ErrInitSubsystem
	ErrNotReady        = errors.ErrNotReady
	ErrSessionTerminal = errors.ErrSessionTerminal
)
