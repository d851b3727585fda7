package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"campusdrop/internal/logx"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/service/bid"
	"campusdrop/internal/service/notify"
	"campusdrop/internal/service/payment"
	"campusdrop/internal/service/rating"
	"campusdrop/internal/service/request"
	"campusdrop/internal/service/user"
)

// serviceIn is what every core service is built from.
type serviceIn struct {
	dig.In
	Store      storetx.Store
	Dispatcher *notify.Dispatcher
	Logger     logx.Logger
	Timeout    operationTimeout
	Operations *prometheus.CounterVec `name:"core_operations_total"`
}

func (in serviceIn) timeout() time.Duration { return time.Duration(in.Timeout) }

func newRatingService(in serviceIn) *rating.Service {
	return rating.NewService(in.Store, in.Dispatcher, in.timeout(), in.Logger, in.Operations)
}

func newRequestService(in serviceIn, ratings *rating.Service) *request.Service {
	return request.NewService(request.Deps{
		Store:       in.Store,
		Estimator:   request.NewCampusEstimator(nil),
		Completions: ratings,
		Notifier:    in.Dispatcher,
		Logger:      in.Logger,
		Operations:  in.Operations,
	}, in.timeout())
}

func newBidService(in serviceIn) *bid.Service {
	return bid.NewService(in.Store, in.Dispatcher, in.timeout(), in.Logger, in.Operations)
}

func newPaymentService(in serviceIn) *payment.Service {
	return payment.NewService(in.Store, in.Dispatcher, in.timeout(), in.Logger, in.Operations)
}

func newUserService(in serviceIn) *user.Service {
	return user.NewService(in.Store, in.timeout(), in.Logger)
}

func newInbox(in serviceIn) *notify.Inbox {
	return notify.NewInbox(in.Store, in.timeout(), in.Logger)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		newRatingService,
		newRequestService,
		newBidService,
		newPaymentService,
		newUserService,
		newInbox,
	)
}
