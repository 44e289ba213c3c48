// Kunhua Huang 2026

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mediabench_connections_total",
			Help: "Total number of accepted connections",
		},
	)
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediabench_active_connections",
			Help: "Connections currently being served",
		},
	)
	bytesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mediabench_bytes_received_total",
			Help: "Total payload bytes received from peers",
		},
	)
	handlerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabench_handler_failures_total",
			Help: "Connection handler failures by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(connectionsTotal)
	prometheus.MustRegister(activeConnections)
	prometheus.MustRegister(bytesReceivedTotal)
	prometheus.MustRegister(handlerFailuresTotal)
}

func ConnAccepted() {
	connectionsTotal.Inc()
	activeConnections.Inc()
}

func ConnClosed() {
	activeConnections.Dec()
}

func BytesReceived(n int64) {
	bytesReceivedTotal.Add(float64(n))
}

func HandlerFailure(reason string) {
	handlerFailuresTotal.WithLabelValues(reason).Inc()
}

// Handler exposes the default registry for the server's optional
// metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
