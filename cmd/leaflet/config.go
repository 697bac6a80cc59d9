// Config loading for the leaflet CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/inkwellhq/leaflet/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyDataDir          = "data_dir"
	cfgKeyDebounceInterval = "debounce_interval"
	cfgKeyRetryBase        = "retry_base"
	cfgKeyRetryMaxAttempts = "retry_max_attempts"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Leaflet CLI configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Auto-save tuning. Durations use Go syntax ("500ms", "1s").
# debounce_interval: 500ms
# retry_base: 1s
# retry_max_attempts: 3
`

// loadConfig reads config.yaml from the resolved config directory using Viper.
// It creates the config directory and a default config.yaml on first run.
// A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDebounceInterval, types.DefaultDebounceInterval)
	v.SetDefault(cfgKeyRetryBase, types.DefaultRetryBase)
	v.SetDefault(cfgKeyRetryMaxAttempts, types.DefaultRetryMaxAttempts)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// A missing config.yaml falls back to defaults.
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// serviceConfig assembles and validates the runtime Config from the resolved
// data directory plus the scheduling keys in config.yaml.
func serviceConfig(configDir, dataDir string) (types.Config, error) {
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{
		DataDir:          dataDir,
		DebounceInterval: durationKey(v, cfgKeyDebounceInterval, types.DefaultDebounceInterval),
		RetryBase:        durationKey(v, cfgKeyRetryBase, types.DefaultRetryBase),
		RetryMaxAttempts: v.GetInt(cfgKeyRetryMaxAttempts),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// durationKey reads a duration config value, falling back to def when the
// key is unset or unparseable.
func durationKey(v *viper.Viper, key string, def time.Duration) time.Duration {
	d := v.GetDuration(key)
	if d <= 0 {
		return def
	}
	return d
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
