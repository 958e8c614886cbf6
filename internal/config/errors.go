package config

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrReadFailed         = errors.ErrReadConfig
	ErrUnmarshalFailed    = errors.ErrorCode("config_unmarshal_failed")
	ErrInvalidHapticLevel = errors.ErrorCode("config_invalid_haptic_level")
	ErrMissingDatabase    = errors.ErrorCode("config_missing_database_path")
)
