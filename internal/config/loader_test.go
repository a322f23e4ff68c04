package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/balance/internal/config"
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
				convey.So(cfg.ScorerTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BALANCE_ADDR", ":8080")
			_ = os.Setenv("BALANCE_SCORER_MODE", "http")
			_ = os.Setenv("BALANCE_SCORER_URL", "http://scorer:8000")
			_ = os.Setenv("BALANCE_SCORER_TIMEOUT_MS", "1500")
			_ = os.Setenv("BALANCE_SCORER_RATE_PER_SEC", "2.5")
			_ = os.Setenv("BALANCE_ALLOW_REVISIT", "true")
			_ = os.Setenv("BALANCE_STORE_DRIVER", "memory")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ScorerMode, convey.ShouldEqual, config.ScorerModeHTTP)
				convey.So(cfg.ScorerURL, convey.ShouldEqual, "http://scorer:8000")
				convey.So(cfg.ScorerTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.ScorerRatePerSec, convey.ShouldEqual, 2.5)
				convey.So(cfg.AllowRevisit, convey.ShouldBeTrue)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreDriverMemory)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
catalog_path: "/etc/balance/catalog.yaml"
store_driver: postgres
store_dsn: "host=db user=balance dbname=balance"
worker_count: 24
feature_weights:
  SLEEP_HOURS: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BALANCE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/etc/balance/catalog.yaml")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreDriverPostgres)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.FeatureWeights["SLEEP_HOURS"], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BALANCE_CONFIG", tmpFile)
			_ = os.Setenv("BALANCE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BALANCE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BALANCE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("BALANCE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BALANCE_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BALANCE_CONFIG",
		"BALANCE_ADDR",
		"BALANCE_SCORER_MODE",
		"BALANCE_SCORER_URL",
		"BALANCE_SCORER_TIMEOUT_MS",
		"BALANCE_SCORER_RATE_PER_SEC",
		"BALANCE_ALLOW_REVISIT",
		"BALANCE_STORE_DRIVER",
		"BALANCE_WORKER_COUNT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "balance-config-*.yaml")
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
