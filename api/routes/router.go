package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okarpenko/retreathub-backend/api/controllers"
	webhookcontrollers "github.com/okarpenko/retreathub-backend/api/controllers/webhooks"
	"github.com/okarpenko/retreathub-backend/api/middleware"
	"github.com/okarpenko/retreathub-backend/internal/auth"
	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/categories"
	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/internal/refunds"
	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/internal/reviews"
	"github.com/okarpenko/retreathub-backend/internal/wishlist"
	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/metrics"
	"github.com/okarpenko/retreathub-backend/pkg/redis"
)

// Services bundles the domain services the router wires to handlers.
type Services struct {
	Auth       auth.Service
	Retreats   retreats.Service
	Categories categories.Service
	Bookings   bookings.Service
	Payments   payments.Service
	Refunds    refunds.Service
	Reviews    reviews.Service
	Wishlist   wishlist.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/{provider}", webhookcontrollers.ProviderCallback(svcs.Payments, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		})

		r.Route("/retreats", func(r chi.Router) {
			r.Get("/", controllers.RetreatList(svcs.Retreats, logg))
			r.Get("/{idOrSlug}", controllers.RetreatDetail(svcs.Retreats, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.Post("/{retreatId}/reviews", controllers.ReviewCreate(svcs.Reviews, logg))
			})
		})

		r.Get("/categories", controllers.CategoryList(svcs.Categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", controllers.BookingCreate(svcs.Bookings, logg))
				r.Get("/", controllers.BookingList(svcs.Bookings, logg))
				r.Post("/{bookingId}/cancel", controllers.BookingCancel(svcs.Bookings, logg))
				r.Get("/{bookingId}/payments", controllers.PaymentListForBooking(svcs.Payments, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/intent", controllers.PaymentIntentCreate(svcs.Payments, logg))
				r.Post("/{paymentId}/refund", controllers.PaymentRefundRequest(svcs.Refunds, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(svcs.Wishlist, logg))
				r.Delete("/{retreatId}", controllers.WishlistRemove(svcs.Wishlist, logg))
			})

			r.Route("/organizer", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleOrganizer), string(enums.UserRoleAdmin)))

				r.Route("/retreats", func(r chi.Router) {
					r.Get("/", controllers.OrganizerRetreatList(svcs.Retreats, logg))
					r.Post("/", controllers.OrganizerRetreatCreate(svcs.Retreats, svcs.Categories, logg))
					r.Patch("/{retreatId}", controllers.OrganizerRetreatUpdate(svcs.Retreats, svcs.Categories, logg))
					r.Delete("/{retreatId}", controllers.OrganizerRetreatDelete(svcs.Retreats, logg))
					r.Get("/{retreatId}/bookings", controllers.OrganizerRetreatBookings(svcs.Bookings, logg))
				})

				r.Route("/refund-requests", func(r chi.Router) {
					r.Get("/", controllers.RefundRequestList(svcs.Refunds, logg))
					r.Post("/{requestId}/decision", controllers.RefundDecision(svcs.Refunds, logg))
				})
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin)))

		r.Post("/retreats/{retreatId}/verify", controllers.AdminRetreatVerify(svcs.Retreats, logg))
		r.Post("/retreats/{retreatId}/feature", controllers.AdminRetreatFeature(svcs.Retreats, logg))
	})

	return r
}
