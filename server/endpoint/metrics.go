package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes h (usually a Prometheus handler) as a Gin handler.
func Metrics(h http.Handler) gin.HandlerFunc {
	return gin.WrapH(h)
}

// PrometheusHandler returns the exposition handler for a registry.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
