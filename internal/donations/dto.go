package donations

import (
	"time"

	"github.com/google/uuid"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
)

// CreateOrderRequest is the public payload that opens a donation. Purpose
// falls back to DefaultPurpose when omitted.
type CreateOrderRequest struct {
	DonorName    string  `json:"donor_name" validate:"required,min=2,max=120"`
	DonorEmail   string  `json:"donor_email" validate:"required,email"`
	DonorPhone   *string `json:"donor_phone,omitempty" validate:"omitempty,min=7,max=20"`
	DonorAddress *string `json:"donor_address,omitempty" validate:"omitempty,max=500"`
	DonorPAN     *string `json:"donor_pan,omitempty" validate:"omitempty,len=10,alphanum"`
	Amount       int64   `json:"amount" validate:"required,gt=0"`
	Purpose      string  `json:"purpose,omitempty" validate:"omitempty,max=200"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreateOrderResponse carries everything the checkout client needs.
type CreateOrderResponse struct {
	DonationID  uuid.UUID `json:"donation_id"`
	OrderID     string    `json:"order_id"`
	Amount      int64     `json:"amount"`
	AmountPaise int64     `json:"amount_paise"`
	Currency    string    `json:"currency"`
	KeyID       string    `json:"key_id"`
}

// VerifyPaymentRequest is the checkout callback payload.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// DonationResponse is the public shape of a donation.
type DonationResponse struct {
	ID               uuid.UUID            `json:"id"`
	DonorName        string               `json:"donor_name"`
	DonorEmail       string               `json:"donor_email"`
	Amount           int64                `json:"amount"`
	Purpose          string               `json:"purpose"`
	Currency         string               `json:"currency"`
	Status           enums.DonationStatus `json:"status"`
	OrderID          string               `json:"order_id"`
	PaymentID        *string              `json:"payment_id,omitempty"`
	ReceiptNumber    *string              `json:"receipt_number,omitempty"`
	ReceiptGenerated bool                 `json:"receipt_generated"`
	EmailSent        bool                 `json:"email_sent"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ListResult wraps a donation page with pagination totals.
type ListResult struct {
	Items []DonationResponse `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
}

func toResponse(d *models.Donation) DonationResponse {
	return DonationResponse{
		ID:               d.ID,
		DonorName:        d.DonorName,
		DonorEmail:       d.DonorEmail,
		Amount:           d.Amount,
		Purpose:          d.Purpose,
		Currency:         d.Currency,
		Status:           d.Status,
		OrderID:          d.OrderID,
		PaymentID:        d.PaymentID,
		ReceiptNumber:    d.ReceiptNumber,
		ReceiptGenerated: d.ReceiptGenerated,
		EmailSent:        d.EmailSent,
		CompletedAt:      d.CompletedAt,
		CreatedAt:        d.CreatedAt,
	}
}

func toResponses(rows []models.Donation) []DonationResponse {
	out := make([]DonationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return out
}
