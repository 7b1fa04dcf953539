// Package config loads justbuilt's settings from ~/.justbuilt/config.toml
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	appDirName     = ".justbuilt"
	configFileName = "config.toml"
)

// Environment variables read by Load.
const (
	EnvConfig         = "JUSTBUILT_CONFIG"
	EnvDataDir        = "JUSTBUILT_DATA_DIR"
	EnvStorage        = "JUSTBUILT_STORAGE"
	EnvLogLevel       = "JUSTBUILT_LOG_LEVEL"
	EnvMaxBranches    = "JUSTBUILT_MAX_BRANCHES"
	EnvAutoCheckpoint = "JUSTBUILT_AUTO_CHECKPOINT"
)

var validate = validator.New()

// Config is the full application configuration.
type Config struct {
	DataDir  string         `toml:"data_dir" validate:"required"`
	Storage  string         `toml:"storage" validate:"oneof=sqlite file"`
	LogLevel string         `toml:"log_level" validate:"oneof=debug info warn error"`
	Timeline TimelineConfig `toml:"timeline"`
}

// TimelineConfig holds the engine settings.
type TimelineConfig struct {
	MaxBranches            int    `toml:"max_branches" validate:"min=1,max=1000"`
	AutoCheckpoint         bool   `toml:"auto_checkpoint"`
	AutoCheckpointInterval string `toml:"auto_checkpoint_interval" validate:"required"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir, err := DataDir()
	if err != nil {
		dir = appDirName
	}
	return Config{
		DataDir:  dir,
		Storage:  "sqlite",
		LogLevel: "info",
		Timeline: TimelineConfig{
			MaxBranches:            timeline.DefaultMaxBranches,
			AutoCheckpoint:         true,
			AutoCheckpointInterval: timeline.DefaultCheckpointInterval.String(),
		},
	}
}

// DataDir returns the default data directory, ~/.justbuilt.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// Path returns the config file path: JUSTBUILT_CONFIG if set, otherwise
// ~/.justbuilt/config.toml.
func Path() (string, error) {
	if p := getEnv(EnvConfig, ""); p != "" {
		return expandHome(p)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config at path (Path() when empty), applies environment
// overrides, and validates the result. A missing file yields the defaults; a
// malformed one is an error.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve path: %w", err)
		}
		path = p
	}

	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.applyEnv()

	dir, err := expandHome(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("config: data_dir: %w", err)
	}
	cfg.DataDir = dir

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the checkpoint interval.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Timeline.Interval(); err != nil {
		return fmt.Errorf("config: timeline.auto_checkpoint_interval: %w", err)
	}
	return nil
}

// Interval parses AutoCheckpointInterval.
func (t TimelineConfig) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(t.AutoCheckpointInterval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// TimelineOptions converts the engine settings. Call on a validated Config.
func (c Config) TimelineOptions(logger *zap.Logger) timeline.Options {
	interval, _ := c.Timeline.Interval()
	return timeline.Options{
		MaxBranches:           c.Timeline.MaxBranches,
		CheckpointInterval:    interval,
		DisableAutoCheckpoint: !c.Timeline.AutoCheckpoint,
		Logger:                logger,
	}
}

// Encode renders the config as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv(EnvDataDir, c.DataDir)
	c.Storage = getEnv(EnvStorage, c.Storage)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.Timeline.MaxBranches = getEnvInt(EnvMaxBranches, c.Timeline.MaxBranches)
	c.Timeline.AutoCheckpoint = getEnvBool(EnvAutoCheckpoint, c.Timeline.AutoCheckpoint)
}

func readTOML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
