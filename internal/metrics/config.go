package metrics

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "gamepulse-telemetry.db"
)

type Config struct {
	DBPath       string
	BatchSize    int
	BatchTimeout int // seconds
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    16,
		BatchTimeout: 5,
		Enabled:      false,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate storage settings when telemetry is enabled
	if !c.Enabled {
		return nil
	}

	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.New(ErrInvalidConfig)
	}

	return nil
}
