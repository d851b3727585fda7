package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewLiveEventsTotal counts live event publish attempts per sink and outcome.
func NewLiveEventsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "live_events_total",
		Help: "Live events handed to sinks, by type, sink and result",
	}, []string{"type", "sink", "result"})
}

// NewOperationsTotal counts core operations by name and outcome.
func NewOperationsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "core_operations_total",
		Help: "Marketplace core operations, by operation and result",
	}, []string{"operation", "result"})
}

// NewWebsocketConnections tracks open websocket sessions.
func NewWebsocketConnections() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Currently open websocket sessions",
	})
}

// Register adds every collector to reg.
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveOperation counts one outcome of op. A nil vec is ignored.
func ObserveOperation(vec *prometheus.CounterVec, op string, err error) {
	if vec == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	vec.WithLabelValues(op, result).Inc()
}
