// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and BARRACE_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"time"
)

// Config contains process configuration. Keys are flat so that every field
// maps to one BARRACE_<KEY> environment variable.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataSource is the file path or http(s) URL of the record document.
	DataSource string `koanf:"data_source"`

	// LoadTimeoutMS bounds fetching the record document.
	LoadTimeoutMS int `koanf:"load_timeout_ms"`

	// Autoplay starts playback as soon as the service is up.
	Autoplay bool `koanf:"autoplay"`

	// TickPeriodMS is the interval between frames.
	TickPeriodMS int `koanf:"tick_period_ms"`

	// TransitionMS is the duration of element transitions.
	TransitionMS int `koanf:"transition_ms"`

	// Width and Height are the canvas size in pixels.
	Width  int `koanf:"width"`
	Height int `koanf:"height"`

	// Margins around the plot area.
	MarginTop    int `koanf:"margin_top"`
	MarginRight  int `koanf:"margin_right"`
	MarginBottom int `koanf:"margin_bottom"`
	MarginLeft   int `koanf:"margin_left"`

	// BandPadding is the fraction of each rank band left empty.
	BandPadding float64 `koanf:"band_padding"`

	// ViewerQueueSize bounds the outbound messages held per viewer.
	ViewerQueueSize int `koanf:"viewer_queue_size"`

	// ViewerWriteTimeoutMS bounds a single websocket write.
	ViewerWriteTimeoutMS int `koanf:"viewer_write_timeout_ms"`

	// SnapshotTopN limits static chart snapshots to the top N bars; 0 keeps all.
	SnapshotTopN int `koanf:"snapshot_top_n"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is how often runtime and service gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DataSource:           "data/aum.json",
		LoadTimeoutMS:        30_000,
		Autoplay:             true,
		TickPeriodMS:         1000,
		TransitionMS:         750,
		Width:                960,
		Height:               600,
		MarginTop:            50,
		MarginRight:          50,
		MarginBottom:         50,
		MarginLeft:           150,
		BandPadding:          0.1,
		ViewerQueueSize:      64,
		ViewerWriteTimeoutMS: 5000,
		SnapshotTopN:         0,
		MetricsEnabled:       true,
		MetricsRefreshMS:     10_000,
	}
}

// TickPeriod returns TickPeriodMS as a duration.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.TickPeriodMS) * time.Millisecond
}

// TransitionDuration returns TransitionMS as a duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.TransitionMS) * time.Millisecond
}

// LoadTimeout returns LoadTimeoutMS as a duration.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutMS) * time.Millisecond
}

// ViewerWriteTimeout returns ViewerWriteTimeoutMS as a duration.
func (c *Config) ViewerWriteTimeout() time.Duration {
	return time.Duration(c.ViewerWriteTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataSource == "":
		return fmt.Errorf("%w: data_source must not be empty", ErrInvalidConfig)
	case c.TickPeriodMS <= 0:
		return fmt.Errorf("%w: tick_period_ms must be positive", ErrInvalidConfig)
	case c.TransitionMS < 0:
		return fmt.Errorf("%w: transition_ms must not be negative", ErrInvalidConfig)
	case c.Width-c.MarginLeft-c.MarginRight <= 0 || c.Height-c.MarginTop-c.MarginBottom <= 0:
		return fmt.Errorf("%w: margins leave no plot area on a %dx%d canvas", ErrInvalidConfig, c.Width, c.Height)
	case c.BandPadding < 0 || c.BandPadding >= 1:
		return fmt.Errorf("%w: band_padding must be in [0, 1)", ErrInvalidConfig)
	case c.ViewerQueueSize <= 0:
		return fmt.Errorf("%w: viewer_queue_size must be positive", ErrInvalidConfig)
	case c.SnapshotTopN < 0:
		return fmt.Errorf("%w: snapshot_top_n must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
