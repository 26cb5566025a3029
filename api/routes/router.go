package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wecantrust/donations-backend/api/controllers"
	"github.com/wecantrust/donations-backend/api/middleware"
	"github.com/wecantrust/donations-backend/pkg/config"
	"github.com/wecantrust/donations-backend/pkg/enums"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/metrics"
)

// Params carries everything the router mounts.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Health    *controllers.HealthController
	Donations *controllers.DonationsController
	Receipts  *controllers.ReceiptsController
	Contact   *controllers.ContactController
}

// New builds the HTTP router: public checkout and verification endpoints,
// plus an admin surface behind JWT auth.
func New(params Params) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(params.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(params.Logger))

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authenticate := middleware.Authenticate(params.Config.JWT, params.Logger)
	requireAdmin := middleware.RequireRole(enums.RoleAdmin, params.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", params.Health.Health)

		r.Route("/donations", func(r chi.Router) {
			r.Get("/razorpay-config", params.Donations.CheckoutConfig)
			r.Post("/create-order", params.Donations.CreateOrder)
			r.Post("/verify-payment", params.Donations.VerifyPayment)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/user/my-donations", params.Donations.MyDonations)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, requireAdmin)
				r.Get("/admin/all", params.Donations.List)
			})

			r.Get("/{id}", params.Donations.Get)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/download/{receiptNumber}", params.Receipts.Download)
			r.Get("/verify/{receiptNumber}", params.Receipts.Verify)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, requireAdmin)
				r.Post("/regenerate/{donationId}", params.Receipts.Regenerate)
				r.Post("/resend/{receiptNumber}", params.Receipts.Resend)
				r.Post("/process-backlog", params.Receipts.ProcessBacklog)
			})
		})

		r.Route("/contact", func(r chi.Router) {
			r.Post("/submit", params.Contact.Submit)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, requireAdmin)
				r.Get("/messages", params.Contact.List)
				r.Get("/stats/overview", params.Contact.Stats)
				r.Get("/{id}", params.Contact.Get)
				r.Put("/{id}", params.Contact.UpdateStatus)
				r.Delete("/{id}", params.Contact.Delete)
			})
		})
	})

	return r
}
