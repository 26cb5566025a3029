package donations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/internal/mailer"
	"github.com/wecantrust/donations-backend/internal/payments"
	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/metrics"
	"github.com/wecantrust/donations-backend/pkg/razorpay"
	"github.com/wecantrust/donations-backend/pkg/tasks"
)

const receiptNumberAttempts = 3

// DefaultPurpose is recorded when the donor does not name one.
const DefaultPurpose = "General Donation"

// ReceiptPipeline is the post-completion enrichment hook. Failures inside it
// never affect the donation's completed status.
type ReceiptPipeline interface {
	ProcessDonation(ctx context.Context, donationID uuid.UUID, force bool) error
}

// Gateway is the payment gateway surface the service depends on.
// *razorpay.Client satisfies it.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	KeyID() string
	KeySecret() string
}

// Service defines the donation lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*DonationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*DonationResponse, error)
	ListByDonorEmail(ctx context.Context, email string, page, limit int) (*ListResult, error)
	ListByStatus(ctx context.Context, status enums.DonationStatus, page, limit int) (*ListResult, error)
	CheckoutKeyID() string
}

// ServiceParams wires donation service dependencies. Dispatcher and Runner
// are optional; without them the confirmation email is skipped.
type ServiceParams struct {
	Repo       Repository
	Gateway    Gateway
	Dispatcher mailer.Dispatcher
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Runner     *tasks.Runner
}

type service struct {
	repo       Repository
	gateway    Gateway
	dispatcher mailer.Dispatcher
	logg       *logger.Logger
	metrics    *metrics.Metrics
	runner     *tasks.Runner
	pipeline   ReceiptPipeline
}

// NewService validates dependencies and returns a donation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "donations repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:       params.Repo,
		gateway:    params.Gateway,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		metrics:    params.Metrics,
		runner:     params.Runner,
	}, nil
}

// SetReceiptPipeline attaches the enrichment hook after construction; the
// pipeline itself depends on this package's repository.
func (s *service) SetReceiptPipeline(pipeline ReceiptPipeline) {
	s.pipeline = pipeline
}

// PipelineBinder is implemented by services that accept a late-bound pipeline.
type PipelineBinder interface {
	SetReceiptPipeline(pipeline ReceiptPipeline)
}

func (s *service) CheckoutKeyID() string {
	return s.gateway.KeyID()
}

func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donation amount must be a positive whole number of rupees")
	}

	donationID := uuid.New()
	amountPaise := req.Amount * 100

	purpose := req.Purpose
	if purpose == "" {
		purpose = DefaultPurpose
	}

	order, err := s.gateway.CreateOrder(ctx, amountPaise, "INR", "donation_"+donationID.String(), map[string]string{
		"donor_name":  req.DonorName,
		"donor_email": req.DonorEmail,
		"purpose":     purpose,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment order")
	}

	donation := &models.Donation{
		ID:           donationID,
		DonorName:    req.DonorName,
		DonorEmail:   req.DonorEmail,
		DonorPhone:   req.DonorPhone,
		DonorAddress: req.DonorAddress,
		DonorPAN:     req.DonorPAN,
		Amount:       req.Amount,
		Purpose:      purpose,
		Currency:     "INR",
		Status:       enums.DonationStatusPending,
		OrderID:      order.ID,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist donation")
	}

	if s.metrics != nil {
		s.metrics.DonationsCreated.Inc()
	}

	ctx = s.logg.WithDonationID(ctx, donationID.String())
	s.logg.Info(ctx, "donation order created")

	return &CreateOrderResponse{
		DonationID:  donationID,
		OrderID:     order.ID,
		Amount:      req.Amount,
		AmountPaise: amountPaise,
		Currency:    order.Currency,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*DonationResponse, error) {
	donation, err := s.repo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donation")
	}

	ctx = s.logg.WithDonationID(ctx, donation.ID.String())

	// A repeated callback for an already completed payment is idempotent.
	if donation.Status == enums.DonationStatusCompleted {
		if donation.PaymentID != nil && *donation.PaymentID == req.PaymentID {
			resp := toResponse(donation)
			return &resp, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "donation already completed with a different payment")
	}
	if donation.Status == enums.DonationStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "donation already failed")
	}

	if !payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature, s.gateway.KeySecret()) {
		if s.metrics != nil {
			s.metrics.PaymentsRejected.Inc()
		}
		if _, markErr := s.repo.MarkFailed(ctx, donation.ID, time.Now().UTC()); markErr != nil {
			s.logg.Error(ctx, "marking donation failed", markErr)
		}
		s.logg.Warn(ctx, "payment signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	completed, err := s.completeWithReceiptNumber(ctx, donation.ID, PaymentProof{
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && completed.Updated {
		s.metrics.PaymentsVerified.Inc()
	}
	s.logg.Info(ctx, "payment verified, donation completed")

	if completed.Updated {
		s.enqueueConfirmation(completed.Donation)
		s.enqueuePipeline(completed.Donation.ID)
	}

	resp := toResponse(completed.Donation)
	return &resp, nil
}

// completeWithReceiptNumber retries receipt number generation when the
// millisecond-derived suffix collides.
func (s *service) completeWithReceiptNumber(ctx context.Context, id uuid.UUID, proof PaymentProof) (CompletionResult, error) {
	var lastErr error
	for attempt := 0; attempt < receiptNumberAttempts; attempt++ {
		number := NewReceiptNumber(time.Now())
		result, err := s.repo.MarkCompleted(ctx, id, proof, number, time.Now().UTC())
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrDuplicateReceiptNumber) {
			return CompletionResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete donation")
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	return CompletionResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr,
		fmt.Sprintf("allocating receipt number after %d attempts", receiptNumberAttempts))
}

// enqueueConfirmation thanks the donor immediately; the receipt follows once
// the pipeline finishes. Delivery is best effort.
func (s *service) enqueueConfirmation(donation *models.Donation) {
	if s.dispatcher == nil || s.runner == nil {
		return
	}
	confirmation := mailer.DonationConfirmation{
		DonorName:  donation.DonorName,
		DonorEmail: donation.DonorEmail,
		Amount:     donation.Amount,
	}
	if donation.PaymentID != nil {
		confirmation.PaymentID = *donation.PaymentID
	}
	dispatcher := s.dispatcher
	s.runner.Go("donation-confirmation", func(ctx context.Context) error {
		_, err := dispatcher.SendDonationConfirmation(ctx, confirmation)
		return err
	})
}

func (s *service) enqueuePipeline(donationID uuid.UUID) {
	if s.pipeline == nil || s.runner == nil {
		return
	}
	pipeline := s.pipeline
	s.runner.Go("receipt-pipeline", func(ctx context.Context) error {
		return pipeline.ProcessDonation(ctx, donationID, false)
	})
}

// Get exposes completed donations only; pending and failed attempts stay
// private to the checkout flow.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*DonationResponse, error) {
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donation")
	}
	if donation.Status != enums.DonationStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
	}
	resp := toResponse(donation)
	return &resp, nil
}

func (s *service) ListByDonorEmail(ctx context.Context, email string, page, limit int) (*ListResult, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor email required")
	}
	rows, total, err := s.repo.ListCompletedByEmail(ctx, email, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	return &ListResult{Items: toResponses(rows), Page: normalizePage(page), Limit: normalizeLimit(limit), Total: total}, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.DonationStatus, page, limit int) (*ListResult, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid donation status filter")
	}
	rows, total, err := s.repo.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	return &ListResult{Items: toResponses(rows), Page: normalizePage(page), Limit: normalizeLimit(limit), Total: total}, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLimit(limit int) int {
	if limit < 1 || limit > 100 {
		return 20
	}
	return limit
}
