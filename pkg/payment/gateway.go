package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sampada-shukla/workeye/internal/domain"
)

// Gateway defines the interface to the payment provider.
type Gateway interface {
	// CreateOrder registers a gateway order for the amount in the smallest
	// currency unit (paise for INR).
	CreateOrder(ctx context.Context, userID, licenseID string, cycle domain.BillingCycle, amountInPaise int64) (*Order, error)
	// Verify confirms a completed payment using the callback payload the
	// widget handed back to the browser.
	Verify(ctx context.Context, transactionID, paymentID, orderID, signature string) error
}

// Order is a gateway order ready to hand to the payment widget.
type Order struct {
	OrderID  string `json:"orderId"`
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifySignature checks a Razorpay callback signature:
// HMAC-SHA256 over "orderID|paymentID" with the key secret.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
