package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/balance/internal/adapters/http/api"
	"github.com/okian/balance/internal/adapters/http/swagger"
	app "github.com/okian/balance/internal/app"
	"github.com/okian/balance/internal/config"
	"github.com/okian/balance/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestServerAssembly(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("BALANCE_STORE_DRIVER", "memory")
		_ = os.Setenv("BALANCE_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("BALANCE_STORE_DRIVER")
			_ = os.Unsetenv("BALANCE_WORKER_COUNT")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)

		convey.Convey("When the service and routes are assembled", func() {
			svc, err := app.FromConfig(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc).Register(ctx, mux)
			handler := api.CORS(cfg.CORSOrigins, mux)

			convey.Convey("Then docs and API answer through the CORS wrapper", func() {
				for _, path := range []string{"/healthz", "/catalog", "/openapi.yaml", "/api-docs"} {
					req := httptest.NewRequest("GET", path, http.NoBody)
					req.Header.Set("Origin", "http://localhost:3000")
					w := httptest.NewRecorder()
					handler.ServeHTTP(w, req)
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
					convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "http://localhost:3000")
				}
			})

			convey.Convey("Then a form submission is scored by the built-in model", func() {
				body := `{"owner_id":"u-1","answers":{"SLEEP_HOURS":8}}`
				req := httptest.NewRequest("POST", "/assessments", strings.NewReader(body))
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
			})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("BALANCE_ADDR", " ")
		defer func() { _ = os.Unsetenv("BALANCE_ADDR") }()

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updater returns when it ends", func() {
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
