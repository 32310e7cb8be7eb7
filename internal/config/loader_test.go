package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/barrace/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataSource, convey.ShouldEqual, "data/aum.json")
				convey.So(cfg.TickPeriodMS, convey.ShouldEqual, 1000)
				convey.So(cfg.TransitionMS, convey.ShouldEqual, 750)
				convey.So(cfg.ViewerQueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BARRACE_ADDR", ":8080")
			_ = os.Setenv("BARRACE_DATA_SOURCE", "https://example.com/aum.json")
			_ = os.Setenv("BARRACE_TICK_PERIOD_MS", "500")
			_ = os.Setenv("BARRACE_TRANSITION_MS", "300")
			_ = os.Setenv("BARRACE_BAND_PADDING", "0.25")
			_ = os.Setenv("BARRACE_AUTOPLAY", "false")
			_ = os.Setenv("BARRACE_METRICS_ENABLED", "false")
			_ = os.Setenv("BARRACE_METRICS_REFRESH_MS", "2500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataSource, convey.ShouldEqual, "https://example.com/aum.json")
				convey.So(cfg.TickPeriodMS, convey.ShouldEqual, 500)
				convey.So(cfg.TransitionMS, convey.ShouldEqual, 300)
				convey.So(cfg.BandPadding, convey.ShouldEqual, 0.25)
				convey.So(cfg.Autoplay, convey.ShouldBeFalse)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 2500*time.Millisecond)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
data_source: "records.json"
width: 1280
height: 720
margin_left: 200
viewer_queue_size: 16
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BARRACE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataSource, convey.ShouldEqual, "records.json")
				convey.So(cfg.Width, convey.ShouldEqual, 1280)
				convey.So(cfg.Height, convey.ShouldEqual, 720)
				convey.So(cfg.MarginLeft, convey.ShouldEqual, 200)
				convey.So(cfg.ViewerQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.MarginTop, convey.ShouldEqual, 50) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
tick_period_ms: 2000
transition_ms: 1500
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BARRACE_CONFIG", tmpFile)
			_ = os.Setenv("BARRACE_ADDR", ":8080")
			_ = os.Setenv("BARRACE_TICK_PERIOD_MS", "250")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")      // Overridden by env
				convey.So(cfg.TickPeriodMS, convey.ShouldEqual, 250)  // Overridden by env
				convey.So(cfg.TransitionMS, convey.ShouldEqual, 1500) // From file
				convey.So(cfg.Width, convey.ShouldEqual, 960)         // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BARRACE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BARRACE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("BARRACE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BARRACE_TICK_PERIOD_MS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero tick period", func() {
			_ = os.Setenv("BARRACE_TICK_PERIOD_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
# Another comment
log_level: debug
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BARRACE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BARRACE_CONFIG",
		"BARRACE_ADDR",
		"BARRACE_DATA_SOURCE",
		"BARRACE_TICK_PERIOD_MS",
		"BARRACE_TRANSITION_MS",
		"BARRACE_BAND_PADDING",
		"BARRACE_AUTOPLAY",
		"BARRACE_METRICS_ENABLED",
		"BARRACE_METRICS_REFRESH_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "barrace-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
