// Package metrics exposes relay and room counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements relay.Recorder and service.RoomMetrics.
type Collector struct {
	connections     prometheus.Gauge
	events          *prometheus.CounterVec
	deliveries      prometheus.Counter
	dropped         *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	roomsCreated    prometheus.Counter
}

// NewCollector registers all whiteboard metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whiteboard_ws_connections",
			Help: "Open websocket connections on this instance",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_relay_events_total",
			Help: "Inbound realtime messages by type",
		}, []string{"type"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_relay_deliveries_total",
			Help: "Frames queued to peers by fan-out",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_relay_dropped_total",
			Help: "Frames or writes dropped by the relay",
		}, []string{"reason"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_persist_failures_total",
			Help: "Snapshot writes that failed against the store",
		}, []string{"op"}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_rooms_created_total",
			Help: "Rooms created",
		}),
	}

	reg.MustRegister(
		c.connections,
		c.events,
		c.deliveries,
		c.dropped,
		c.persistFailures,
		c.roomsCreated,
	)
	return c
}

func (c *Collector) ConnectionOpened() { c.connections.Inc() }
func (c *Collector) ConnectionClosed() { c.connections.Dec() }

func (c *Collector) Event(msgType string) {
	c.events.WithLabelValues(msgType).Inc()
}

func (c *Collector) Delivered(n int) {
	c.deliveries.Add(float64(n))
}

func (c *Collector) Dropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

func (c *Collector) PersistFailure(op string) {
	c.persistFailures.WithLabelValues(op).Inc()
}

func (c *Collector) RoomCreated() { c.roomsCreated.Inc() }

// Handler Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
