package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle of a paid checkout.
type TransactionStatus string

const (
	TxnCreated             TransactionStatus = "created"
	TxnGatewayOrderCreated TransactionStatus = "gateway_order_created"
	TxnAwaitingCallback    TransactionStatus = "awaiting_gateway_callback"
	TxnVerified            TransactionStatus = "verified"
	TxnFailed              TransactionStatus = "failed"
)

// Terminal reports whether the status ends the lifecycle.
func (s TransactionStatus) Terminal() bool {
	return s == TxnVerified || s == TxnFailed
}

// CanTransition reports whether moving to next is a legal lifecycle step.
// Any non-terminal status may move to failed.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == TxnFailed {
		return true
	}
	switch s {
	case TxnCreated:
		return next == TxnGatewayOrderCreated
	case TxnGatewayOrderCreated:
		return next == TxnAwaitingCallback
	case TxnAwaitingCallback:
		return next == TxnVerified
	}
	return false
}

// Transaction is the local record of a paid checkout. The transaction ID is
// assigned by the licensing system when the purchase is created; the order ID
// and gateway key arrive once the gateway order exists. A transaction left in
// a non-terminal status is a candidate for manual reconciliation.
type Transaction struct {
	ID             string            `json:"transactionId"`
	AttemptID      string            `json:"attemptId"`
	UserID         string            `json:"userId"`
	LicenseID      string            `json:"licenseId"`
	DisplayCycle   BillingCycle      `json:"displayBillingCycle"`
	BackendCycle   BillingCycle      `json:"backendBillingCycle"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	GatewayOrderID string            `json:"orderId,omitempty"`
	GatewayKey     string            `json:"-"`
	Status         TransactionStatus `json:"status"`
	FailureReason  string            `json:"failureReason,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Identity is the purchasing user as known to the main WorkEye app.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// CheckoutRequest is the confirm-checkout input.
type CheckoutRequest struct {
	LicenseID    string `json:"licenseId" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly quarterly half-yearly yearly"`
}

// CheckoutOutcome distinguishes the terminal states Confirm can reach
// before the gateway callback.
type CheckoutOutcome string

const (
	OutcomeFreePlanActivated CheckoutOutcome = "free_plan_activated"
	OutcomeAwaitingGateway   CheckoutOutcome = "awaiting_gateway"
)

// CheckoutResponse is returned by the confirm-checkout entry point. For free
// plans only RedirectURL is set; for paid plans the gateway handoff fields
// drive the payment widget.
type CheckoutResponse struct {
	Outcome       CheckoutOutcome `json:"outcome"`
	AttemptID     string          `json:"attemptId"`
	TransactionID string          `json:"transactionId,omitempty"`
	RedirectURL   string          `json:"redirectUrl,omitempty"`

	// Gateway handoff (paid plans only).
	GatewayKey     string `json:"gatewayKey,omitempty"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	AmountInPaise  int64  `json:"amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	PrefillName    string `json:"prefillName,omitempty"`
	PrefillEmail   string `json:"prefillEmail,omitempty"`

	Pricing DisplayPricing `json:"pricing"`
}

// VerifyRequest is the gateway callback payload forwarded by the browser
// after the payment widget completes.
type VerifyRequest struct {
	TransactionID    string `json:"transactionId" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewaySignature string `json:"razorpay_signature" validate:"required"`
}
