package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"campusdrop/internal/auth"
	"campusdrop/internal/http/handlers"
)

// Deps groups everything the router mounts. Nil middlewares are skipped.
type Deps struct {
	Base          *handlers.Handlers
	Requests      *handlers.RequestHandler
	Bids          *handlers.BidHandler
	Payments      *handlers.PaymentHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
	Users         *handlers.UserHandler

	// Live serves GET /ws; Metrics serves GET /metrics.
	Live    http.Handler
	Metrics http.Handler

	Verifier      auth.Verifier
	Observability func(http.Handler) http.Handler
	// RateLimit wraps write routes only.
	RateLimit func(http.Handler) http.Handler
	// Timeout bounds every route except /ws. Zero means 5s.
	Timeout time.Duration
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.Observability != nil {
		r.Use(d.Observability)
	}
	r.Use(middleware.Recoverer)

	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	// websocket sessions outlive any request timeout
	if d.Live != nil {
		r.Method(http.MethodGet, "/ws", d.Live)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/ping", d.Base.Ping)
		r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
		if d.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", d.Metrics)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(auth.Middleware(d.Verifier))
			r.Group(func(r chi.Router) { readRoutes(r, d) })
			r.Group(func(r chi.Router) {
				if d.RateLimit != nil {
					r.Use(d.RateLimit)
				}
				writeRoutes(r, d)
			})
		})
	})

	return r
}

func readRoutes(r chi.Router, d Deps) {
	r.Get("/requests/mine", d.Requests.Mine)
	r.Get("/requests/active", d.Requests.Active)
	r.Get("/requests/biddable", d.Requests.Biddable)
	r.Get("/requests/assigned", d.Requests.Assigned)
	r.Get("/requests/{id}", d.Requests.Get)
	r.Get("/requests/{id}/bids", d.Bids.List)
	r.Get("/requests/{id}/payment", d.Payments.Get)

	r.Get("/users/me", d.Users.Me)
	r.Get("/users/{id}/reviews", d.Reviews.ListForUser)

	r.Get("/notifications", d.Notifications.List)

	r.Get("/admin/requests", d.Requests.AdminList)
	r.Get("/admin/stats", d.Users.Stats)
}

func writeRoutes(r chi.Router, d Deps) {
	r.Post("/requests", d.Requests.Create)
	r.Patch("/requests/{id}/status", d.Requests.UpdateStatus)
	r.Post("/requests/{id}/bids", d.Bids.Place)
	r.Post("/bids/{id}/accept", d.Bids.Accept)
	r.Post("/requests/{id}/payment", d.Payments.Confirm)
	r.Post("/requests/{id}/reviews", d.Reviews.Create)

	r.Patch("/notifications/read-all", d.Notifications.MarkAllRead)
	r.Patch("/notifications/{id}/read", d.Notifications.MarkRead)

	r.Patch("/users/me/availability", d.Users.SetAvailability)

	r.Post("/admin/users", d.Users.Create)
	r.Patch("/admin/users/{id}/block", d.Users.Block)
}
