package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/api/responses"
	"github.com/wecantrust/donations-backend/api/validators"
	"github.com/wecantrust/donations-backend/internal/receipts"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

// ReceiptsController exposes receipt verification, download and admin
// maintenance operations.
type ReceiptsController struct {
	svc  receipts.Service
	logg *logger.Logger
}

func NewReceiptsController(svc receipts.Service, logg *logger.Logger) *ReceiptsController {
	return &ReceiptsController{svc: svc, logg: logg}
}

// Verify is the public endpoint behind the QR code on printed receipts.
func (c *ReceiptsController) Verify(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "receiptNumber")
	hash := r.URL.Query().Get("hash")

	result, err := c.svc.Verify(r.Context(), number, hash)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

// Download streams the stored receipt PDF.
func (c *ReceiptsController) Download(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "receiptNumber")

	reader, info, err := c.svc.Download(r.Context(), number)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="Receipt-%s.pdf"`, number))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if _, err := io.Copy(w, reader); err != nil {
		c.logg.Error(r.Context(), "streaming receipt pdf", err)
	}
}

type regenerateRequest struct {
	SendEmail *bool `json:"send_email"`
}

// Regenerate rebuilds the receipt PDF for a donation, keeping number and
// hash stable. The email goes out unless the body opts out.
func (c *ReceiptsController) Regenerate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "donationId"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "invalid donation id"))
		return
	}

	var req regenerateRequest
	if r.ContentLength > 0 {
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
	}
	sendEmail := req.SendEmail == nil || *req.SendEmail

	result, err := c.svc.Regenerate(r.Context(), id, sendEmail)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

// ProcessBacklog sweeps completed donations that are missing their receipt
// or receipt email.
func (c *ReceiptsController) ProcessBacklog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	result, err := c.svc.ProcessBacklog(r.Context(), limit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

type resendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// Resend emails the stored receipt again, optionally to another address.
func (c *ReceiptsController) Resend(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "receiptNumber")

	var req resendRequest
	if r.ContentLength > 0 {
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
	}

	messageID, err := c.svc.Resend(r.Context(), number, req.Email)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{"receipt_number": number, "message_id": messageID})
}
