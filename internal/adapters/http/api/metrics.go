package api

import (
	"net/http"

	"github.com/okian/elrobot/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsHandler serves the custom registry in the Prometheus exposition
// format.
func newMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
