// Package metrics exposes Prometheus instrumentation for the tracking
// engine. All call sites tolerate a nil *Collector.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	TrackingActive    prometheus.Gauge
	PositionsRecorded prometheus.Counter
	TicksSkipped      *prometheus.CounterVec // reason label: no_fix|below_threshold|no_destination
	ETARecomputes     *prometheus.CounterVec // result label: applied|held
	RouteErrors       prometheus.Counter
	StoreErrors       prometheus.Counter
	EventsPublished   prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TrackingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_session_active",
			Help: "1 while a tracking session is running, 0 otherwise.",
		}),
		PositionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_positions_recorded_total",
			Help: "Total position samples persisted.",
		}),
		TicksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_ticks_skipped_total",
			Help: "Timer ticks that recorded no sample.",
		}, []string{"reason"}),
		ETARecomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_eta_recomputes_total",
			Help: "ETA recomputations by outcome.",
		}, []string{"result"}),
		RouteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_route_errors_total",
			Help: "Directions provider failures.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_store_errors_total",
			Help: "Store failures inside the tracking loop.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_events_published_total",
			Help: "Activity change events published.",
		}),
	}

	reg.MustRegister(
		c.TrackingActive, c.PositionsRecorded, c.TicksSkipped,
		c.ETARecomputes, c.RouteErrors, c.StoreErrors, c.EventsPublished,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
