// Package config loads OrbitWatch settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/orbitwatch/internal/feed"
)

// EnvPrefix namespaces environment overrides, e.g. ORBITWATCH_FEED_URL.
const EnvPrefix = "ORBITWATCH"

// Viper keys.
const (
	KeyFeedURL           = "feed.url"
	KeyFeedTimeout       = "feed.timeout"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
	KeyLogFile           = "logging.file"
	KeyJournalEnabled    = "journal.enabled"
	KeyJournalPath       = "journal.path"
	KeyFrameInterval     = "ui.frame_interval"
	KeyIdleRateDegPerSec = "ui.idle_rate_deg_per_sec"
)

// Config is the resolved client configuration.
type Config struct {
	Feed    FeedConfig
	Logging LoggingConfig
	Journal JournalConfig
	UI      UIConfig
}

type FeedConfig struct {
	URL     string
	Timeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

type JournalConfig struct {
	Enabled bool
	Path    string
}

type UIConfig struct {
	FrameInterval     time.Duration
	IdleRateDegPerSec float64
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyFeedURL, feed.DefaultURL)
	v.SetDefault(KeyFeedTimeout, feed.DefaultTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "~/.local/state/orbitwatch/orbitwatch.log")
	v.SetDefault(KeyJournalEnabled, true)
	v.SetDefault(KeyJournalPath, "~/.local/state/orbitwatch/journal.db")
	v.SetDefault(KeyFrameInterval, 100*time.Millisecond)
	v.SetDefault(KeyIdleRateDegPerSec, 1.0)
}

// Bind wires env overrides and, when path is non-empty or a default file
// exists, reads the YAML config file. A missing default file is not an error.
func Bind(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(ExpandPath(path))
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "orbitwatch"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Feed: FeedConfig{
			URL:     strings.TrimSpace(v.GetString(KeyFeedURL)),
			Timeout: v.GetDuration(KeyFeedTimeout),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			File:   ExpandPath(v.GetString(KeyLogFile)),
		},
		Journal: JournalConfig{
			Enabled: v.GetBool(KeyJournalEnabled),
			Path:    ExpandPath(v.GetString(KeyJournalPath)),
		},
		UI: UIConfig{
			FrameInterval:     v.GetDuration(KeyFrameInterval),
			IdleRateDegPerSec: v.GetFloat64(KeyIdleRateDegPerSec),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Feed.Timeout < 0 {
		return fmt.Errorf("feed timeout must not be negative: %s", c.Feed.Timeout)
	}
	if c.UI.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive: %s", c.UI.FrameInterval)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal enabled without a path")
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
