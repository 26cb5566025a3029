package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecantrust/donations-backend/api/middleware"
	"github.com/wecantrust/donations-backend/internal/donations"
	"github.com/wecantrust/donations-backend/pkg/auth"
	"github.com/wecantrust/donations-backend/pkg/config"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

type fakeDonationsService struct {
	createOrderFn   func(ctx context.Context, req donations.CreateOrderRequest) (*donations.CreateOrderResponse, error)
	verifyPaymentFn func(ctx context.Context, req donations.VerifyPaymentRequest) (*donations.DonationResponse, error)
	getFn           func(ctx context.Context, id uuid.UUID) (*donations.DonationResponse, error)
	listByEmailFn   func(ctx context.Context, email string, page, limit int) (*donations.ListResult, error)
}

func (f *fakeDonationsService) CreateOrder(ctx context.Context, req donations.CreateOrderRequest) (*donations.CreateOrderResponse, error) {
	return f.createOrderFn(ctx, req)
}

func (f *fakeDonationsService) VerifyPayment(ctx context.Context, req donations.VerifyPaymentRequest) (*donations.DonationResponse, error) {
	return f.verifyPaymentFn(ctx, req)
}

func (f *fakeDonationsService) Get(ctx context.Context, id uuid.UUID) (*donations.DonationResponse, error) {
	return f.getFn(ctx, id)
}

func (f *fakeDonationsService) ListByDonorEmail(ctx context.Context, email string, page, limit int) (*donations.ListResult, error) {
	if f.listByEmailFn == nil {
		return &donations.ListResult{Page: page, Limit: limit}, nil
	}
	return f.listByEmailFn(ctx, email, page, limit)
}

func (f *fakeDonationsService) ListByStatus(ctx context.Context, status enums.DonationStatus, page, limit int) (*donations.ListResult, error) {
	return &donations.ListResult{Page: page, Limit: limit}, nil
}

func (f *fakeDonationsService) CheckoutKeyID() string {
	return "rzp_test_key"
}

func newTestController(svc donations.Service) *DonationsController {
	return NewDonationsController(svc, logger.New(logger.Options{ServiceName: "test"}))
}

func TestCreateOrderReturnsCheckoutParameters(t *testing.T) {
	donationID := uuid.New()
	svc := &fakeDonationsService{
		createOrderFn: func(ctx context.Context, req donations.CreateOrderRequest) (*donations.CreateOrderResponse, error) {
			assert.Equal(t, int64(500), req.Amount)
			return &donations.CreateOrderResponse{
				DonationID:  donationID,
				OrderID:     "order_abc",
				Amount:      req.Amount,
				AmountPaise: req.Amount * 100,
				Currency:    "INR",
				KeyID:       "rzp_test_key",
			}, nil
		},
	}

	body := `{"donor_name":"Asha Patel","donor_email":"asha@example.com","donor_phone":"9876543210","amount":500}`
	req := httptest.NewRequest(http.MethodPost, "/create-order", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestController(svc).CreateOrder(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data donations.CreateOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "order_abc", envelope.Data.OrderID)
	assert.Equal(t, int64(50000), envelope.Data.AmountPaise)
	assert.Equal(t, "rzp_test_key", envelope.Data.KeyID)
}

func TestCreateOrderRejectsInvalidBody(t *testing.T) {
	svc := &fakeDonationsService{
		createOrderFn: func(ctx context.Context, req donations.CreateOrderRequest) (*donations.CreateOrderResponse, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	body := `{"donor_name":"A","donor_email":"not-an-email","amount":-5}`
	req := httptest.NewRequest(http.MethodPost, "/create-order", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestController(svc).CreateOrder(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "donor_email")
}

func TestVerifyPaymentMapsStateConflict(t *testing.T) {
	svc := &fakeDonationsService{
		verifyPaymentFn: func(ctx context.Context, req donations.VerifyPaymentRequest) (*donations.DonationResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "donation already failed")
		},
	}

	body := `{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`
	req := httptest.NewRequest(http.MethodPost, "/verify-payment", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestController(svc).VerifyPayment(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "donation already failed", envelope.Error.Message)
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc := &fakeDonationsService{
		getFn: func(ctx context.Context, id uuid.UUID) (*donations.DonationResponse, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/donations/{id}", newTestController(svc).Get)

	req := httptest.NewRequest(http.MethodGet, "/donations/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyDonationsUsesTokenEmail(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "donations-backend"}
	logg := logger.New(logger.Options{ServiceName: "test"})

	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "asha@example.com",
		Role:   enums.RoleUser,
	})
	require.NoError(t, err)

	var listedEmail string
	svc := &fakeDonationsService{
		listByEmailFn: func(ctx context.Context, email string, page, limit int) (*donations.ListResult, error) {
			listedEmail = email
			return &donations.ListResult{Page: page, Limit: limit}, nil
		},
	}

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtCfg, logg))
		r.Get("/donations/user/my-donations", NewDonationsController(svc, logg).MyDonations)
	})

	req := httptest.NewRequest(http.MethodGet, "/donations/user/my-donations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asha@example.com", listedEmail)

	// Without a token the route is unreachable.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/user/my-donations", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetReturnsDonation(t *testing.T) {
	donationID := uuid.New()
	svc := &fakeDonationsService{
		getFn: func(ctx context.Context, id uuid.UUID) (*donations.DonationResponse, error) {
			require.Equal(t, donationID, id)
			return &donations.DonationResponse{ID: id, Status: enums.DonationStatusCompleted}, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/donations/{id}", newTestController(svc).Get)

	req := httptest.NewRequest(http.MethodGet, "/donations/"+donationID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data donations.DonationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, donationID, envelope.Data.ID)
	assert.Equal(t, enums.DonationStatusCompleted, envelope.Data.Status)
}
