package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"campusdrop/internal/auth"
	"campusdrop/internal/http/handlers"
	httpmw "campusdrop/internal/http/middleware"
	"campusdrop/internal/http/middleware/ratelimit"
	"campusdrop/internal/http/router"
	"campusdrop/internal/logx"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/service/bid"
	"campusdrop/internal/service/notify"
	"campusdrop/internal/service/payment"
	"campusdrop/internal/service/rating"
	"campusdrop/internal/service/request"
	"campusdrop/internal/service/user"
	"campusdrop/internal/transport/pubsub"
	"campusdrop/internal/transport/ws"
)

func registerHandlers(container *dig.Container) error {
	return provideAll(container,
		handlers.New,
		func(logger logx.Logger, s *request.Service) *handlers.RequestHandler {
			return handlers.NewRequestHandler(logger, s)
		},
		func(logger logx.Logger, s *bid.Service, eta *request.Service) *handlers.BidHandler {
			return handlers.NewBidHandler(logger, s, eta)
		},
		func(logger logx.Logger, s *payment.Service) *handlers.PaymentHandler {
			return handlers.NewPaymentHandler(logger, s)
		},
		func(logger logx.Logger, s *rating.Service) *handlers.ReviewHandler {
			return handlers.NewReviewHandler(logger, s)
		},
		func(logger logx.Logger, s *notify.Inbox) *handlers.NotificationHandler {
			return handlers.NewNotificationHandler(logger, s)
		},
		func(logger logx.Logger, s *user.Service) *handlers.UserHandler {
			return handlers.NewUserHandler(logger, s)
		},
		newLiveHandler,
	)
}

type liveIn struct {
	dig.In
	Verifier    auth.Verifier
	Store       storetx.Store
	Broker      *pubsub.Broker
	Logger      logx.Logger
	Connections prometheus.Gauge `name:"websocket_connections"`
}

func newLiveHandler(in liveIn) *ws.Handler {
	return ws.NewHandler(in.Verifier, in.Store, in.Broker, in.Logger, ws.WithConnectionsGauge(in.Connections))
}

type routerIn struct {
	dig.In
	Logger        logx.Logger
	Timeout       operationTimeout
	Verifier      auth.Verifier
	Registry      *prometheus.Registry
	HTTPMetrics   *httpmw.HTTPMetrics
	RateLimit     *ratelimit.Middleware
	Base          *handlers.Handlers
	Requests      *handlers.RequestHandler
	Bids          *handlers.BidHandler
	Payments      *handlers.PaymentHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
	Users         *handlers.UserHandler
	Live          *ws.Handler
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Base:          in.Base,
		Requests:      in.Requests,
		Bids:          in.Bids,
		Payments:      in.Payments,
		Reviews:       in.Reviews,
		Notifications: in.Notifications,
		Users:         in.Users,
		Live:          in.Live,
		Metrics:       promhttp.HandlerFor(in.Registry, promhttp.HandlerOpts{Registry: in.Registry}),
		Verifier:      in.Verifier,
		Observability: httpmw.Observability(in.Logger, in.HTTPMetrics),
		RateLimit:     in.RateLimit.Handler(),
		// service calls hit their own deadline first
		Timeout: 2 * time.Duration(in.Timeout),
	})
}
