package faults

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	defaultDirPerm    = 0o755
	defaultDebounceMs = 300
)

type Config struct {
	// DebounceMs is the delay before the next queued record is
	// displayed after a resolution.
	DebounceMs int

	// DBPath enables durable history of resolved records when set.
	DBPath string
}

func DefaultConfig() Config {
	return Config{
		DebounceMs: defaultDebounceMs,
	}
}

func (c Config) Validate() error {
	if c.DebounceMs < 0 {
		return errors.New().New(ErrInvalidDebounce)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
