package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/shopspring/decimal"
)

// LicensingClient talks to the licensing system: customer directory,
// license purchases and transaction lookups.
type LicensingClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewLicensingClient creates a client for the licensing system.
func NewLicensingClient(baseURL, apiKey string) *LicensingClient {
	return &LicensingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// PurchaseResult is what the licensing system returns for a created purchase.
type PurchaseResult struct {
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId"`
}

// Purchase creates a license purchase record. Amount 0 with currency INR
// activates a free plan; paid plans carry the computed checkout total.
func (c *LicensingClient) Purchase(ctx context.Context, name, email, licenseID string, cycle domain.BillingCycle, amount decimal.Decimal, currency string) (*PurchaseResult, error) {
	body := map[string]any{
		"name":         name,
		"email":        email,
		"licenseId":    licenseID,
		"billingCycle": cycle,
		"amount":       amount,
		"currency":     currency,
	}

	var wrapper struct {
		Data PurchaseResult `json:"data"`
	}
	if err := c.post(ctx, "/api/lms/purchase-license", body, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Data.TransactionID == "" {
		return nil, domain.ErrInternal("licensing returned no transaction id", nil)
	}
	return &wrapper.Data, nil
}

// TransactionDetails is the licensing system's view of a completed purchase,
// shown on the payment-success page.
type TransactionDetails struct {
	TransactionID string          `json:"transactionId"`
	Plan          string          `json:"plan"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// GetTransaction fetches transaction details by ID.
func (c *LicensingClient) GetTransaction(ctx context.Context, transactionID string) (*TransactionDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/payment/transaction/"+transactionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	var details TransactionDetails
	if err := c.do(req, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Exists checks whether a customer record exists for the email.
func (c *LicensingClient) Exists(ctx context.Context, email string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.post(ctx, "/api/external/customer-exists", map[string]string{"email": email}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Create registers a customer record in the licensing system.
func (c *LicensingClient) Create(ctx context.Context, name, email, source string) error {
	body := map[string]string{
		"name":   name,
		"email":  email,
		"source": source,
	}
	return c.post(ctx, "/api/external/customer-sync", body, nil)
}

func (c *LicensingClient) post(ctx context.Context, path string, body, out any) error {
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

	return c.do(req, out)
}

func (c *LicensingClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("licensing request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read licensing response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// The licensing API reports errors as {"message": "..."}; surface it
		// so the user sees the collaborator's own message.
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return &domain.AppError{Code: resp.StatusCode, Message: apiErr.Message}
		}
		return &domain.AppError{Code: resp.StatusCode, Message: fmt.Sprintf("licensing returned status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode licensing response: %w", err)
	}
	return nil
}
