package perf

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrInvalidWindow = errors.ErrorCode("perf_invalid_window")
)
