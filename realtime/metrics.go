package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	openStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_open_streams",
		Help: "Number of registered realtime streams",
	})

	pushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_push_total",
			Help: "Realtime publishes by outcome",
		},
		[]string{"outcome"},
	)
)

// RegisterMetrics registers the realtime collectors.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(openStreams, pushTotal)
}
