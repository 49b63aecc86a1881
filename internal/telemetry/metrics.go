package telemetry

import (
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "contacts"

// requestSet is the count/latency/in-flight trio kept per API surface.
type requestSet struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newRequestSet(subsystem, what string, labels ...string) requestSet {
	return requestSet{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total " + what + " requests.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      what + " request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "Current number of in-flight " + what + " requests.",
		}),
	}
}

func (s requestSet) collectors() []prometheus.Collector {
	return []prometheus.Collector{s.total, s.duration, s.inFlight}
}

func (s requestSet) observe(a, b string, d time.Duration) {
	s.total.WithLabelValues(a, b).Inc()
	s.duration.WithLabelValues(a, b).Observe(d.Seconds())
}

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	http requestSet
	grpc requestSet

	dbQueries  *prometheus.CounterVec
	dbDuration *prometheus.HistogramVec

	events *prometheus.CounterVec
}

// NewMetrics registers the service collectors. A nil registerer means the
// Prometheus default one.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		http: newRequestSet("http", "HTTP", "route", "status"),
		grpc: newRequestSet("grpc", "gRPC", "method", "code"),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Total repository calls by method and status.",
		}, []string{"method", "status"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Repository call duration in seconds by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Contact change events by type and status.",
		}, []string{"type", "status"}),
	}

	collectors := append(m.http.collectors(), m.grpc.collectors()...)
	collectors = append(collectors, m.dbQueries, m.dbDuration, m.events)
	registerer.MustRegister(collectors...)

	return m
}

func (m *Metrics) ObserveHTTP(route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.http.observe(route, status, duration)
}

func (m *Metrics) IncHTTPInFlight() {
	if m == nil {
		return
	}
	m.http.inFlight.Inc()
}

func (m *Metrics) DecHTTPInFlight() {
	if m == nil {
		return
	}
	m.http.inFlight.Dec()
}

func (m *Metrics) ObserveRPC(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.grpc.observe(method, code, duration)
}

func (m *Metrics) IncRPCInFlight() {
	if m == nil {
		return
	}
	m.grpc.inFlight.Inc()
}

func (m *Metrics) DecRPCInFlight() {
	if m == nil {
		return
	}
	m.grpc.inFlight.Dec()
}

func (m *Metrics) ObserveDB(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(method, status).Inc()
	m.dbDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

func (m *Metrics) IncEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, status).Inc()
}

type poolStat struct {
	name    string
	help    string
	counter bool
	value   func(sql.DBStats) float64
}

var poolStats = []poolStat{
	{"open_connections", "Open database connections.", false,
		func(s sql.DBStats) float64 { return float64(s.OpenConnections) }},
	{"in_use_connections", "In-use database connections.", false,
		func(s sql.DBStats) float64 { return float64(s.InUse) }},
	{"idle_connections", "Idle database connections.", false,
		func(s sql.DBStats) float64 { return float64(s.Idle) }},
	{"wait_count_total", "Total number of waits for a free connection.", true,
		func(s sql.DBStats) float64 { return float64(s.WaitCount) }},
	{"wait_duration_seconds_total", "Total time blocked waiting for a free connection in seconds.", true,
		func(s sql.DBStats) float64 { return s.WaitDuration.Seconds() }},
}

// RegisterDBPoolMetrics exposes db.Stats as contacts_db_pool_* series.
// Registering the same pool twice is not an error.
func RegisterDBPoolMetrics(db *sql.DB, registerer prometheus.Registerer) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	for _, st := range poolStats {
		value := func() float64 { return st.value(db.Stats()) }

		var c prometheus.Collector
		if st.counter {
			c = prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "db_pool", Name: st.name, Help: st.help,
			}, value)
		} else {
			c = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "db_pool", Name: st.name, Help: st.help,
			}, value)
		}

		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}

	return nil
}
