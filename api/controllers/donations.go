package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/api/middleware"
	"github.com/wecantrust/donations-backend/api/responses"
	"github.com/wecantrust/donations-backend/api/validators"
	"github.com/wecantrust/donations-backend/internal/donations"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

// DonationsController exposes the donation lifecycle over HTTP.
type DonationsController struct {
	svc  donations.Service
	logg *logger.Logger
}

func NewDonationsController(svc donations.Service, logg *logger.Logger) *DonationsController {
	return &DonationsController{svc: svc, logg: logg}
}

// CreateOrder opens a donation and returns the checkout parameters.
func (c *DonationsController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req donations.CreateOrderRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	resp, err := c.svc.CreateOrder(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, resp)
}

// VerifyPayment handles the checkout callback.
func (c *DonationsController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req donations.VerifyPaymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	resp, err := c.svc.VerifyPayment(r.Context(), req)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

// CheckoutConfig returns the public gateway key for the checkout widget.
func (c *DonationsController) CheckoutConfig(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{
		"key_id":   c.svc.CheckoutKeyID(),
		"currency": "INR",
	})
}

// Get returns a single donation by id.
func (c *DonationsController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "invalid donation id"))
		return
	}

	resp, err := c.svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

// MyDonations returns the authenticated donor's completed donations, keyed
// by the email in their token.
func (c *DonationsController) MyDonations(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok || email == "" {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return
	}

	page, limit := validators.PageParams(r)
	resp, err := c.svc.ListByDonorEmail(r.Context(), email, page, limit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}

// List returns donations filtered by status for admin review.
func (c *DonationsController) List(w http.ResponseWriter, r *http.Request) {
	page, limit := validators.PageParams(r)
	status := enums.DonationStatus(r.URL.Query().Get("status"))

	resp, err := c.svc.ListByStatus(r.Context(), status, page, limit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, resp)
}
