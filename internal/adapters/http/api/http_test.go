package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/elrobot/internal/adapters/http/api"
	"github.com/okian/elrobot/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func startedStats() *mockStatsProvider {
	return &mockStatsProvider{stats: map[string]interface{}{
		"started": true,
		"role":    "detector",
		"session": "0b6e3c1e",
		"ticks":   42,
	}}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer(startedStats())
		mux := http.NewServeMux()
		server.Register(mux)

		Convey("Then the health endpoint is accessible", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		})

		Convey("Then the stats endpoint is accessible", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the metrics endpoint exposes request counters", func() {
			mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "elrobot_http_requests_total")
		})

		Convey("Then unknown paths are not found", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a started service", t, func() {
		handler := api.NewHealthHandler(startedStats())

		Convey("When handling a health check", func() {
			w := httptest.NewRecorder()
			handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it reports ok with the role and session", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
				So(body["role"], ShouldEqual, "detector")
				So(body["session"], ShouldEqual, "0b6e3c1e")
			})
		})

		Convey("When the method is not GET", func() {
			w := httptest.NewRecorder()
			handler.HandleHealth(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a service that has not started", t, func() {
		handler := api.NewHealthHandler(&mockStatsProvider{stats: map[string]interface{}{"started": false}})
		w := httptest.NewRecorder()
		handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		Convey("Then it answers service unavailable", func() {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		handler := api.NewStatsHandler(startedStats())

		Convey("When handling stats request", func() {
			w := httptest.NewRecorder()
			handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["ticks"], ShouldEqual, 42)
				So(response["role"], ShouldEqual, "detector")
			})
		})
	})
}

func TestServer_ListenAndServe(t *testing.T) {
	Convey("Given a server listening on an ephemeral port", t, func() {
		server := api.NewServer(startedStats())
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- server.ListenAndServe(ctx, "127.0.0.1:0") }()

		Convey("When the context is cancelled", func() {
			time.Sleep(20 * time.Millisecond)
			cancel()

			Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
				case <-time.After(5 * time.Second):
					So("server did not stop", ShouldBeEmpty)
				}
			})
		})
	})
}
