package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mariagarzap/festeja-backend/api/controllers"
	"github.com/mariagarzap/festeja-backend/api/middleware"
	"github.com/mariagarzap/festeja-backend/internal/availability"
	"github.com/mariagarzap/festeja-backend/internal/notifications"
	"github.com/mariagarzap/festeja-backend/internal/stocknotify"
	"github.com/mariagarzap/festeja-backend/pkg/config"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *redis.Client
	Registry      prometheus.Gatherer
	Availability  availability.Service
	Subscriptions stocknotify.Service
	Notifications notifications.Service
	Idempotency   redis.IdempotencyStore
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger(deps.Redis)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/availability", func(r chi.Router) {
			// Vendor-owned writes.
			r.With(middleware.RequireRole(middleware.RoleVendor, logg)).
				Post("/", controllers.UpsertAvailability(deps.Availability, logg))
			r.With(middleware.RequireRole(middleware.RoleVendor, logg)).
				Delete("/item/{itemId}/type/{itemType}/date/{date}", controllers.DeleteAvailability(deps.Availability, logg))
			r.With(middleware.RequireRole(middleware.RoleVendor, logg)).
				Delete("/item/{itemId}/type/{itemType}", controllers.DeleteItemAvailability(deps.Availability, logg))

			// Booking hooks, called by the order flow.
			r.Post("/decrement", controllers.DecrementAvailability(deps.Availability, logg))
			r.Post("/increment", controllers.IncrementAvailability(deps.Availability, logg))

			// Reads.
			r.Post("/check", controllers.CheckAvailability(deps.Availability, logg))
			r.Get("/business/{businessId}", controllers.ListBusinessAvailability(deps.Availability, logg))
			r.Get("/item/{itemId}/type/{itemType}", controllers.ListItemAvailability(deps.Availability, logg))
			r.Get("/item/{itemId}/type/{itemType}/range", controllers.ListItemAvailabilityRange(deps.Availability, logg))
			r.Get("/item/{itemId}/type/{itemType}/date/{date}", controllers.GetAvailability(deps.Availability, logg))
			r.Get("/item/{itemId}/type/{itemType}/date/{date}/quantity", controllers.GetAvailableQuantity(deps.Availability, logg))
		})

		r.Route("/stock-notifications", func(r chi.Router) {
			r.Post("/subscribe", controllers.SubscribeStockNotification(deps.Subscriptions, logg))
			r.Delete("/unsubscribe", controllers.UnsubscribeStockNotification(deps.Subscriptions, logg))
			r.Get("/check", controllers.CheckStockSubscription(deps.Subscriptions, logg))
			r.Get("/user/{userId}", controllers.ListStockSubscriptions(deps.Subscriptions, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}

func redisPinger(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
