package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nicktill/healthexport/pkg/export"
	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/storage"
)

// InfluxDB connection (hardcoded, not exposed as flags)
const (
	InfluxURL         = "http://localhost:8086"
	InfluxOrg         = "chromebook"
	InfluxBucket      = "health_data"
	InfluxMeasurement = "Health"
	InfluxTokenEnv    = "INFLUXDB_TOKEN"
)

// Extraction defaults
const (
	DefaultDays        = 1
	DefaultDayInterval = 1
	DefaultOutput      = "health_data.csv"
	DefaultTimezone    = "UTC"
)

// Logging defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	ServiceName      = "healthexport"
)

var (
	ErrInvalidInterval  = errors.New("--day_interval must not be negative")
	ErrConflictingDirs  = errors.New("--snapshot_dir and --replay_dir are mutually exclusive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")

	// Snapshots hold raw samples; replay aggregates them locally
	ErrAggregatedSnapshot = errors.New("--snapshot_dir records raw samples and cannot be combined with --aggregate")
)

// Config is the fully parsed command line plus environment
type Config struct {
	Days        int
	DayInterval int
	Aggregate   string
	Output      string
	SingleShot  bool
	Calendar    bool
	Timezone    string

	SnapshotDir string
	ReplayDir   string

	LogLevel  string
	LogFormat string

	Token string
}

// Default returns a config with every default applied
func Default() Config {
	return Config{
		Days:        DefaultDays,
		DayInterval: DefaultDayInterval,
		Output:      DefaultOutput,
		Calendar:    true,
		Timezone:    DefaultTimezone,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// LoadFromEnv reads the InfluxDB token from the environment
func (c *Config) LoadFromEnv() {
	c.Token = os.Getenv(InfluxTokenEnv)
}

// Validate rejects configuration errors before any data is accessed
func (c *Config) Validate() error {
	if c.Days < 1 {
		return fmt.Errorf("--days: %w, got %d", export.ErrInvalidDays, c.Days)
	}
	if c.DayInterval < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidInterval, c.DayInterval)
	}
	agg, err := storage.ParseAggregation(c.Aggregate)
	if err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.SnapshotDir != "" && c.ReplayDir != "" {
		return ErrConflictingDirs
	}
	if c.SnapshotDir != "" && agg.Enabled() {
		return ErrAggregatedSnapshot
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q (want console or json)", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

// Aggregation returns the parsed aggregation. Call after Validate.
func (c *Config) Aggregation() storage.Aggregation {
	a, _ := storage.ParseAggregation(c.Aggregate)
	return a
}

// Location returns the timezone row keys are derived in. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Variant returns the row layout selected by --calendar
func (c *Config) Variant() health.Variant {
	if c.Calendar {
		return health.VariantCalendar
	}
	return health.VariantTimeOfDay
}
