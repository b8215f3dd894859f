package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutord",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Total successful model loads",
		},
		[]string{"model"},
	)

	launchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutord",
			Subsystem: "manager",
			Name:      "launch_failures_total",
			Help:      "Total failed model starts",
		},
		[]string{"model", "kind"},
	)

	evictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tutord",
			Subsystem: "manager",
			Name:      "evictions_total",
			Help:      "Total instances evicted to satisfy exclusivity",
		},
	)

	generationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tutord",
			Subsystem: "manager",
			Name:      "generation_seconds",
			Help:      "Duration of backend generate calls in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"model", "role"},
	)
)

func init() {
	prometheus.MustRegister(loadsTotal, launchFailuresTotal, evictionsTotal, generationSeconds)
}
