package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/elockenvitz/tesseract/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DefaultWindowHours, convey.ShouldEqual, 24)
				convey.So(cfg.ServiceName, convey.ShouldEqual, "tesseract")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("TESSERACT_ADDR", ":8080")
			t.Setenv("TESSERACT_CACHE_SIZE", "16")
			t.Setenv("TESSERACT_COLLECTOR_TIMEOUT_MS", "250")
			t.Setenv("TESSERACT_STATE_DB_PATH", "/tmp/state.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheSize, convey.ShouldEqual, 16)
				convey.So(cfg.CollectorTimeoutMS, convey.ShouldEqual, 250)
				convey.So(cfg.StateDBPath, convey.ShouldEqual, "/tmp/state.db")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfig(t, `
addr: ":9090"
max_window_hours: 72
default_window_hours: 48
fixtures_path: "testdata/records.yaml"
`)
			t.Setenv(config.EnvConfigPath, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxWindowHours, convey.ShouldEqual, 72)
				convey.So(cfg.DefaultWindowHours, convey.ShouldEqual, 48)
				convey.So(cfg.FixturesPath, convey.ShouldEqual, "testdata/records.yaml")
			})

			convey.Convey("Then env vars take precedence over the file", func() {
				t.Setenv("TESSERACT_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxWindowHours, convey.ShouldEqual, 72)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			t.Setenv("TESSERACT_MAX_WINDOW_HOURS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearConfigEnvVars resets variables a previous leaf may have set; t.Setenv
// only restores them when the whole test ends.
func clearConfigEnvVars() {
	for _, key := range []string{
		config.EnvConfigPath,
		"TESSERACT_ADDR",
		"TESSERACT_CACHE_SIZE",
		"TESSERACT_COLLECTOR_TIMEOUT_MS",
		"TESSERACT_STATE_DB_PATH",
		"TESSERACT_MAX_WINDOW_HOURS",
	} {
		_ = os.Unsetenv(key)
	}
}
