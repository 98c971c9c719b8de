// Package metrics exposes Prometheus instruments for the dispatcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_mqtt"

// Drop reasons.
const (
	ReasonDecode        = "decode"
	ReasonNotInitialize = "not_initialize"
	ReasonNoID          = "no_id"
	ReasonNoClientID    = "no_client_id"
	ReasonBadClientID   = "bad_client_id"
	ReasonNoMethod      = "no_method"
	ReasonUnknownMethod = "unknown_method"
	ReasonUnknownURI    = "unknown_uri"
	ReasonBadParams     = "bad_params"
	ReasonUnrouted      = "unrouted"
	ReasonPublish       = "publish"
	ReasonSubscribe     = "subscribe"
)

// Metrics groups the server instruments. Construct with New.
type Metrics struct {
	gatherer prometheus.Gatherer

	MessagesReceived *prometheus.CounterVec
	MessagesDropped  *prometheus.CounterVec
	Responses        *prometheus.CounterVec
	ToolCalls        *prometheus.CounterVec
	ToolDuration     *prometheus.HistogramVec
	Sessions         prometheus.Gauge
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return NewWith(reg, reg)
}

// NewWith registers the instruments on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound MQTT messages by topic class",
		}, []string{"class"}),
		MessagesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Inbound messages dropped without a reply",
		}, []string{"reason"}),
		Responses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Replies published by method and outcome",
		}, []string{"method", "outcome"}),
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool callback latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Clients currently registered",
		}),
	}
}

// Dropped counts a message dropped for reason.
func (m *Metrics) Dropped(reason string) {
	m.MessagesDropped.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
