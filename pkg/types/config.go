package types

import (
	"errors"
	"time"
)

// Scheduling defaults.
const (
	DefaultDebounceInterval = 500 * time.Millisecond
	DefaultRetryBase        = time.Second
	DefaultRetryMaxAttempts = 3
)

// Config holds the tunables for a Leaflet service instance.
type Config struct {
	DataDir          string        `json:"data_dir" yaml:"data_dir"`
	DebounceInterval time.Duration `json:"debounce_interval" yaml:"debounce_interval"`
	RetryBase        time.Duration `json:"retry_base" yaml:"retry_base"`
	RetryMaxAttempts int           `json:"retry_max_attempts" yaml:"retry_max_attempts"`
}

// Config validation errors.
var (
	ErrDataDirEmpty       = errors.New("data dir must not be empty")
	ErrDebounceNegative   = errors.New("debounce interval must not be negative")
	ErrRetryBaseNegative  = errors.New("retry base must not be negative")
	ErrRetryLimitNegative = errors.New("retry max attempts must not be negative")
)

// Validate checks that the Config is well-formed, returning a sentinel error
// from this package on failure. Zero durations and a zero attempt bound are
// valid and mean "use the default".
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.DebounceInterval < 0 {
		return ErrDebounceNegative
	}
	if c.RetryBase < 0 {
		return ErrRetryBaseNegative
	}
	if c.RetryMaxAttempts < 0 {
		return ErrRetryLimitNegative
	}
	return nil
}
