package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"campusdrop/internal/config"
	httpmw "campusdrop/internal/http/middleware"
	"campusdrop/internal/logx"
	"campusdrop/internal/metrics"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/service/notify"
	"campusdrop/internal/transport/kafka"
	"campusdrop/internal/transport/pubsub"
)

type collectorsOut struct {
	dig.Out
	Operations  *prometheus.CounterVec `name:"core_operations_total"`
	LiveEvents  *prometheus.CounterVec `name:"live_events_total"`
	RateLimited prometheus.Counter     `name:"rate_limit_exceeded_total"`
	Connections prometheus.Gauge       `name:"websocket_connections"`
	HTTP        *httpmw.HTTPMetrics
	Registry    *prometheus.Registry
}

func newCollectors() (collectorsOut, error) {
	out := collectorsOut{
		Operations:  metrics.NewOperationsTotal(),
		LiveEvents:  metrics.NewLiveEventsTotal(),
		RateLimited: metrics.NewRateLimitExceededTotal(),
		Connections: metrics.NewWebsocketConnections(),
		HTTP:        httpmw.NewHTTPMetrics(),
		Registry:    prometheus.NewRegistry(),
	}
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		out.Operations, out.LiveEvents, out.RateLimited, out.Connections,
	}
	cs = append(cs, out.HTTP.Collectors()...)
	if err := metrics.Register(out.Registry, cs...); err != nil {
		return collectorsOut{}, err
	}
	return out, nil
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container, newCollectors)
}

type dispatcherIn struct {
	dig.In
	Logger     logx.Logger
	LiveEvents *prometheus.CounterVec `name:"live_events_total"`
	Broker     *pubsub.Broker
	Producer   *kafka.Producer
}

func newDispatcher(in dispatcherIn) *notify.Dispatcher {
	publishers := []events.Publisher{in.Broker}
	if in.Producer != nil {
		publishers = append(publishers, in.Producer)
	}
	return notify.NewDispatcher(in.Logger, in.LiveEvents, publishers...)
}

func newBroker(cfg *config.Config, logger logx.Logger) *pubsub.Broker {
	return pubsub.NewBroker(cfg.Events.SubscriberBuffer, pubsub.WithDropHook(func(m events.Message) {
		logger.Warn("live event dropped for slow subscriber",
			logx.String("topic", m.Topic),
			logx.String("type", string(m.Type)),
		)
	}))
}

// newProducer returns nil when no brokers are configured.
func newProducer(cfg *config.Config, logger logx.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

func registerEvents(container *dig.Container) error {
	return provideAll(container,
		newBroker,
		newProducer,
		newDispatcher,
	)
}
