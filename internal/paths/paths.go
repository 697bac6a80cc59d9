// Package paths picks the configuration and data directories for the CLI,
// layering explicit flags over environment overrides and platform
// conventions.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the CWD-relative data directory used when nothing
// overrides it.
const DefaultDataDirName = ".leaflet-data"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LEAFLET_CONFIG_DIR"
	EnvDataDir   = "LEAFLET_DATA_DIR"
)

// ResolveConfigDir picks the configuration directory: an explicit flag
// wins, then LEAFLET_CONFIG_DIR, then the platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return defaultConfigDir()
}

// defaultConfigDir is $XDG_CONFIG_HOME/leaflet (fallback ~/.config/leaflet)
// on Linux and the user config dir elsewhere: ~/Library/Application Support
// on macOS, %APPDATA% on Windows.
func defaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "leaflet"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "leaflet"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "leaflet"), nil
}

// ResolveDataDir picks the data directory: flag, then the config.yaml
// value, then LEAFLET_DATA_DIR, then $(CWD)/.leaflet-data. The CWD-relative
// default keeps throwaway workspaces self-contained.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
