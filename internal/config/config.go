package config

import (
	"os"
	"strings"

	"codeberg.org/verne/gamepulse/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultFrameWindowMs     = 1000
	defaultDisplayDebounceMs = 300
	defaultDragWeight        = 0.7
	defaultMomentumDecay     = 0.85
	defaultVelocityNorm      = 1000.0
	defaultVelocityThreshold = 50.0
)

// Config holds the persisted user settings together with the
// runtime tuning values of the coordination layer.
type Config struct {
	// Persisted user settings, written back on change.
	Sound             bool   `mapstructure:"sound"`
	Haptics           bool   `mapstructure:"haptics"`
	HapticLevel       string `mapstructure:"haptic_level"`
	ReduceMotion      bool   `mapstructure:"reduce_motion"`
	AnnounceGameState bool   `mapstructure:"announce_game_state"`

	// Runtime options.
	LogLevel    string `mapstructure:"log_level"`
	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`

	// Tuning values. Hand-tuned feel constants; kept configurable
	// rather than hard-coded.
	FrameWindowMs     int     `mapstructure:"frame_window_ms"`
	DisplayDebounceMs int     `mapstructure:"display_debounce_ms"`
	DragWeight        float64 `mapstructure:"drag_weight"`
	MomentumDecay     float64 `mapstructure:"momentum_decay"`
	VelocityNorm      float64 `mapstructure:"velocity_norm"`
	VelocityThreshold float64 `mapstructure:"velocity_threshold"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("sound", true)
	v.SetDefault("haptics", true)
	v.SetDefault("haptic_level", "medium")
	v.SetDefault("reduce_motion", false)
	v.SetDefault("announce_game_state", true)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "")
	v.SetDefault("frame_window_ms", defaultFrameWindowMs)
	v.SetDefault("display_debounce_ms", defaultDisplayDebounceMs)
	v.SetDefault("drag_weight", defaultDragWeight)
	v.SetDefault("momentum_decay", defaultMomentumDecay)
	v.SetDefault("velocity_norm", defaultVelocityNorm)
	v.SetDefault("velocity_threshold", defaultVelocityThreshold)

	if path := os.Getenv("GAMEPULSE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(ErrReadFailed, err)
		}
	}

	v.SetEnvPrefix("GAMEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("gamepulse", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("log-level", "", "Log level (debug, info, warning, error)")
	fs.Bool("reduce-motion", false, "Force reduced motion")
	fs.Bool("telemetry", false, "Enable session telemetry recording")
	fs.String("database", "", "Path to the session telemetry database")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	fs.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(ErrUnmarshalFailed, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(config.LogLevel)

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch c.HapticLevel {
	case "off", "light", "medium", "strong":
	default:
		return errFactory.WithData(ErrInvalidHapticLevel, c.HapticLevel)
	}

	if c.Telemetry && c.TelemetryDB == "" {
		return errFactory.New(ErrMissingDatabase)
	}

	if c.FrameWindowMs <= 0 || c.DisplayDebounceMs < 0 {
		return errFactory.New(errors.ErrInvalidConfig)
	}

	return nil
}

// Save writes the persisted user settings back to the given path.
// Tuning values are deliberately not written; they stay owned by the
// config file or their defaults.
func (c *Config) Save(path string) error {
	errFactory := errors.New()

	if path == "" {
		path = os.Getenv("GAMEPULSE_CONFIG")
	}
	if path == "" {
		return errFactory.New(errors.ErrMissingConfig)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("sound", c.Sound)
	v.Set("haptics", c.Haptics)
	v.Set("haptic_level", c.HapticLevel)
	v.Set("reduce_motion", c.ReduceMotion)
	v.Set("announce_game_state", c.AnnounceGameState)

	if err := v.WriteConfigAs(path); err != nil {
		return errFactory.Wrap(errors.ErrWriteConfig, err)
	}

	return nil
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}
