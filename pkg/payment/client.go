package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sampada-shukla/workeye/internal/domain"
)

// Client talks to the payments API that fronts Razorpay: it creates gateway
// orders and verifies completed payments server-side.
type Client struct {
	baseURL   string
	apiKey    string
	keySecret string
	http      *http.Client
}

// NewClient creates a payment gateway client. keySecret is the Razorpay key
// secret used to pre-check callback signatures locally before the
// authoritative server-side verification.
func NewClient(baseURL, apiKey, keySecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateOrder registers a Razorpay order for the amount in paise. The cycle
// here is the original user-selected cycle, not the backend-normalized one;
// the payments API uses it for discount bookkeeping on the order.
func (c *Client) CreateOrder(ctx context.Context, userID, licenseID string, cycle domain.BillingCycle, amountInPaise int64) (*Order, error) {
	body := map[string]any{
		"userId":       userID,
		"licenseId":    licenseID,
		"billingCycle": cycle,
		"amount":       amountInPaise,
	}

	var order Order
	if err := c.post(ctx, "/api/payment/create-order", body, &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, domain.ErrInternal("gateway returned no order id", nil)
	}
	return &order, nil
}

// Verify confirms the payment with the payments API. The signature is checked
// locally first; a mismatch never reaches the wire.
func (c *Client) Verify(ctx context.Context, transactionID, paymentID, orderID, signature string) error {
	if !VerifySignature(orderID, paymentID, signature, c.keySecret) {
		return domain.ErrUnauthorized("payment signature mismatch")
	}

	body := map[string]string{
		"transactionId":       transactionID,
		"razorpay_payment_id": paymentID,
		"razorpay_order_id":   orderID,
		"razorpay_signature":  signature,
	}
	return c.post(ctx, "/api/payment/verify-payment", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return &domain.AppError{Code: resp.StatusCode, Message: apiErr.Message}
		}
		return &domain.AppError{Code: resp.StatusCode, Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
