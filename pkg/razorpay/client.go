package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpaysdk "github.com/razorpay/razorpay-go"

	"github.com/wecantrust/donations-backend/pkg/config"
)

// Client wraps the Razorpay SDK behind the order surface the backend needs.
type Client struct {
	sdk       *razorpaysdk.Client
	keyID     string
	keySecret string
}

// Order is the subset of a gateway order the backend cares about.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// OrderCreator is the gateway surface consumed by the donation service.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error)
}

// New validates credentials and constructs a gateway client.
func New(cfg config.RazorpayConfig) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	return &Client{
		sdk:       razorpaysdk.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}, nil
}

// KeyID returns the public key identifier used by checkout clients.
func (c *Client) KeyID() string {
	return c.keyID
}

// KeySecret returns the secret used for signature verification.
func (c *Client) KeySecret() string {
	return c.keySecret
}

// CreateOrder registers an order with the gateway. Amount is in paise.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, errors.New("order amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		noteMap := map[string]interface{}{}
		for k, v := range notes {
			noteMap[k] = v
		}
		data["notes"] = noteMap
	}

	// The SDK is not context-aware; honor cancellation before the call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("creating razorpay order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order response missing id")
	}

	order := &Order{
		ID:       id,
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
	}
	if amt, ok := body["amount"].(float64); ok {
		order.Amount = int64(amt)
	}
	if cur, ok := body["currency"].(string); ok && cur != "" {
		order.Currency = cur
	}
	return order, nil
}
