package donations

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/razorpay"
)

type fakeRepo struct {
	Repository

	createFn        func(ctx context.Context, donation *models.Donation) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	getByOrderIDFn  func(ctx context.Context, orderID string) (*models.Donation, error)
	markCompletedFn func(ctx context.Context, id uuid.UUID, proof PaymentProof, receiptNumber string, now time.Time) (CompletionResult, error)
	markFailedFn    func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

func (f *fakeRepo) Create(ctx context.Context, donation *models.Donation) error {
	return f.createFn(ctx, donation)
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Donation, error) {
	return f.getByOrderIDFn(ctx, orderID)
}

func (f *fakeRepo) MarkCompleted(ctx context.Context, id uuid.UUID, proof PaymentProof, receiptNumber string, now time.Time) (CompletionResult, error) {
	return f.markCompletedFn(ctx, id, proof, receiptNumber, now)
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return f.markFailedFn(ctx, id, now)
}

type fakeGateway struct {
	createOrderFn func(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	secret        string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
	return f.createOrderFn(ctx, amountPaise, currency, receipt, notes)
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func (f *fakeGateway) KeySecret() string { return f.secret }

func newTestService(t *testing.T, repo Repository, gateway Gateway) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Gateway: gateway,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func strPtr(s string) *string { return &s }

func signCallback(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrderPersistsAfterGateway(t *testing.T) {
	var created *models.Donation
	repo := &fakeRepo{
		createFn: func(ctx context.Context, donation *models.Donation) error {
			created = donation
			return nil
		},
	}
	gateway := &fakeGateway{
		createOrderFn: func(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
			assert.EqualValues(t, 500000, amountPaise)
			assert.Equal(t, "INR", currency)
			return &razorpay.Order{ID: "order_123", Amount: amountPaise, Currency: currency, Receipt: receipt}, nil
		},
	}

	svc := newTestService(t, repo, gateway)
	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
		DonorPhone: strPtr("+911234567890"),
		Amount:     5000,
	})
	require.NoError(t, err)

	assert.Equal(t, "order_123", resp.OrderID)
	assert.EqualValues(t, 5000, resp.Amount)
	assert.EqualValues(t, 500000, resp.AmountPaise)
	assert.Equal(t, "rzp_test_key", resp.KeyID)

	require.NotNil(t, created)
	assert.Equal(t, "order_123", created.OrderID)
	assert.Equal(t, enums.DonationStatusPending, created.Status)
	assert.EqualValues(t, 5000, created.Amount)
	assert.Equal(t, DefaultPurpose, created.Purpose)
}

func TestCreateOrderRecordsPurpose(t *testing.T) {
	var created *models.Donation
	var orderNotes map[string]string
	repo := &fakeRepo{
		createFn: func(ctx context.Context, donation *models.Donation) error {
			created = donation
			return nil
		},
	}
	gateway := &fakeGateway{
		createOrderFn: func(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
			orderNotes = notes
			return &razorpay.Order{ID: "order_456", Amount: amountPaise, Currency: currency, Receipt: receipt}, nil
		},
	}

	svc := newTestService(t, repo, gateway)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
		Amount:     2500,
		Purpose:    "School Building Fund",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "School Building Fund", created.Purpose)
	assert.Equal(t, "School Building Fund", orderNotes["purpose"])
	assert.Nil(t, created.DonorPhone)
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeGateway{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
		DonorPhone: strPtr("+911234567890"),
		Amount:     0,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateOrderGatewayFailureLeavesNoRow(t *testing.T) {
	createCalled := false
	repo := &fakeRepo{
		createFn: func(ctx context.Context, donation *models.Donation) error {
			createCalled = true
			return nil
		},
	}
	gateway := &fakeGateway{
		createOrderFn: func(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
			return nil, errors.New("gateway down")
		},
	}

	svc := newTestService(t, repo, gateway)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
		DonorPhone: strPtr("+911234567890"),
		Amount:     100,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.False(t, createCalled)
}

func TestVerifyPaymentCompletesOnValidSignature(t *testing.T) {
	const secret = "test-secret"
	donationID := uuid.New()
	pending := &models.Donation{
		ID:         donationID,
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
		Amount:     5000,
		Currency:   "INR",
		Status:     enums.DonationStatusPending,
		OrderID:    "order_abc",
	}

	var assignedNumber string
	repo := &fakeRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*models.Donation, error) {
			return pending, nil
		},
		markCompletedFn: func(ctx context.Context, id uuid.UUID, proof PaymentProof, receiptNumber string, now time.Time) (CompletionResult, error) {
			assignedNumber = receiptNumber
			done := *pending
			done.Status = enums.DonationStatusCompleted
			done.PaymentID = &proof.PaymentID
			done.PaymentSignature = &proof.Signature
			done.ReceiptNumber = &receiptNumber
			done.CompletedAt = &now
			return CompletionResult{Updated: true, Donation: &done}, nil
		},
	}

	svc := newTestService(t, repo, &fakeGateway{secret: secret})
	resp, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_def",
		Signature: signCallback("order_abc", "pay_def", secret),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.DonationStatusCompleted, resp.Status)
	require.NotNil(t, resp.ReceiptNumber)
	assert.Equal(t, assignedNumber, *resp.ReceiptNumber)
	assert.Regexp(t, `^WCT-\d{6}-\d{6}$`, assignedNumber)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	donationID := uuid.New()
	failed := false
	repo := &fakeRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*models.Donation, error) {
			return &models.Donation{ID: donationID, Status: enums.DonationStatusPending, OrderID: orderID}, nil
		},
		markFailedFn: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			failed = true
			return true, nil
		},
	}

	svc := newTestService(t, repo, &fakeGateway{secret: "test-secret"})
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_def",
		Signature: "deadbeef",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.True(t, failed)
}

func TestVerifyPaymentIdempotentForSamePayment(t *testing.T) {
	paymentID := "pay_def"
	number := "WCT-202509-000123"
	repo := &fakeRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*models.Donation, error) {
			return &models.Donation{
				ID:            uuid.New(),
				Status:        enums.DonationStatusCompleted,
				OrderID:       orderID,
				PaymentID:     &paymentID,
				ReceiptNumber: &number,
			}, nil
		},
	}

	svc := newTestService(t, repo, &fakeGateway{secret: "test-secret"})
	resp, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: paymentID,
		Signature: "anything",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ReceiptNumber)
	assert.Equal(t, number, *resp.ReceiptNumber)
}

func TestVerifyPaymentConflictingTerminalStates(t *testing.T) {
	otherPayment := "pay_other"
	repo := &fakeRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*models.Donation, error) {
			return &models.Donation{
				ID:        uuid.New(),
				Status:    enums.DonationStatusCompleted,
				OrderID:   orderID,
				PaymentID: &otherPayment,
			}, nil
		},
	}

	svc := newTestService(t, repo, &fakeGateway{secret: "test-secret"})
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_def",
		Signature: "anything",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	repo := &fakeRepo{
		getByOrderIDFn: func(ctx context.Context, orderID string) (*models.Donation, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := newTestService(t, repo, &fakeGateway{secret: "test-secret"})
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_missing",
		PaymentID: "pay_def",
		Signature: "anything",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
