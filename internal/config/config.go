// Package config loads and validates runtime settings for the forecast engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/spf13/viper"
)

// Configuration keys understood by Load.
const (
	KeyDatabasePath     = "database.path"
	KeyHistoricalMonths = "prediction.historical_months"
	KeyPeerWindowMonths = "prediction.peer_window_months"
	KeyUserClusters     = "prediction.user_clusters"
	KeyTimeout          = "prediction.timeout"
	KeyLogLevel         = "logging.level"
	KeyLogFormat        = "logging.format"
)

// Defaults applied when a key is unset.
const (
	DefaultDatabasePath     = "~/.local/share/forecast/forecast.db"
	DefaultHistoricalMonths = 18
	DefaultPeerWindowMonths = 6
	DefaultUserClusters     = 5
	DefaultTimeout          = 30 * time.Second
)

// Request bounds on the lookback window.
const (
	MinHistoricalMonths = 1
	MaxHistoricalMonths = 60
)

// Settings is the validated configuration for one process.
type Settings struct {
	DatabasePath     string
	LogLevel         string
	LogFormat        string
	HistoricalMonths int
	PeerWindowMonths int
	UserClusters     int
	Timeout          time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyHistoricalMonths, DefaultHistoricalMonths)
	v.SetDefault(KeyPeerWindowMonths, DefaultPeerWindowMonths)
	v.SetDefault(KeyUserClusters, DefaultUserClusters)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads settings from v and validates them.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	s := Settings{
		DatabasePath:     ExpandPath(v.GetString(KeyDatabasePath)),
		HistoricalMonths: v.GetInt(KeyHistoricalMonths),
		PeerWindowMonths: v.GetInt(KeyPeerWindowMonths),
		UserClusters:     v.GetInt(KeyUserClusters),
		Timeout:          v.GetDuration(KeyTimeout),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for out-of-range values.
func (s Settings) Validate() error {
	if s.DatabasePath == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if s.HistoricalMonths < MinHistoricalMonths || s.HistoricalMonths > MaxHistoricalMonths {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d",
			common.ErrInvalidConfig, KeyHistoricalMonths, MinHistoricalMonths, MaxHistoricalMonths, s.HistoricalMonths)
	}
	if s.PeerWindowMonths < 1 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyPeerWindowMonths, s.PeerWindowMonths)
	}
	if s.UserClusters < 2 {
		return fmt.Errorf("%w: %s must be at least 2, got %d", common.ErrInvalidConfig, KeyUserClusters, s.UserClusters)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidConfig, KeyTimeout, s.Timeout)
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
