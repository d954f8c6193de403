package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the prometheus instruments of one cache
type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Evictions     *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	Entries       prometheus.Gauge
}

// NewMetrics creates the cache instruments and registers them on reg when it
// is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxstock",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		}, []string{"collection"})
	}

	m := &Metrics{
		Hits:          counter("hits_total", "Cache lookups served from memory."),
		Misses:        counter("misses_total", "Cache lookups that went to the store."),
		Evictions:     counter("evictions_total", "Entries dropped because their TTL elapsed."),
		Invalidations: counter("invalidations_total", "Collection invalidations caused by writes."),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rxstock",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions, m.Invalidations, m.Entries)
	}
	return m
}
