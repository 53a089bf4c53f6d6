package service

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sampada-shukla/workeye/internal/client"
	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/sampada-shukla/workeye/pkg/payment"
	"github.com/shopspring/decimal"
)

// customerSource identifies this product in the shared customer directory.
const customerSource = "WorkEye"

// CustomerDirectory is the licensing system's customer record store.
type CustomerDirectory interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, name, email, source string) error
}

// Licensing creates purchases and serves transaction details.
type Licensing interface {
	Purchase(ctx context.Context, name, email, licenseID string, cycle domain.BillingCycle, amount decimal.Decimal, currency string) (*client.PurchaseResult, error)
	GetTransaction(ctx context.Context, transactionID string) (*client.TransactionDetails, error)
}

// TransactionStore persists the local transaction state machine.
// Implemented by repository.TransactionRepository.
type TransactionStore interface {
	Create(ctx context.Context, t *domain.Transaction) error
	AttachGatewayOrder(ctx context.Context, id, orderID, key string, status domain.TransactionStatus) error
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, reason string) error
	// Settle writes a terminal status, but only if the transaction has not
	// already settled. Reports whether the write landed.
	Settle(ctx context.Context, id string, status domain.TransactionStatus, reason string) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindStuck(ctx context.Context, olderThan time.Duration) ([]*domain.Transaction, error)
}

// CheckoutService drives a checkout attempt through its external call
// sequence: customer verification, license purchase, gateway order creation,
// widget handoff and callback verification. Every collaborator failure
// aborts the attempt where it happened; nothing is retried automatically —
// a retry is the user re-submitting from the start.
type CheckoutService struct {
	directory CustomerDirectory
	licensing Licensing
	gateway   payment.Gateway
	txns      TransactionStore
	validate  *validator.Validate

	attempts       *attemptRegistry
	appURL         string
	gatewayTimeout time.Duration
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	directory CustomerDirectory,
	licensing Licensing,
	gateway payment.Gateway,
	txns TransactionStore,
	appURL string,
	gatewayTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		directory:      directory,
		licensing:      licensing,
		gateway:        gateway,
		txns:           txns,
		validate:       validator.New(),
		attempts:       newAttemptRegistry(),
		appURL:         appURL,
		gatewayTimeout: gatewayTimeout,
	}
}

// Confirm is the confirm-checkout entry point. For free plans it activates
// the plan and returns a redirect; for paid plans it returns the gateway
// handoff payload and leaves the attempt suspended until the gateway
// callback arrives (or the suspension times out).
func (s *CheckoutService) Confirm(ctx context.Context, identity domain.Identity, req *domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	if identity.Name == "" || identity.Email == "" {
		return nil, domain.ErrUnauthorized("session expired, please login again")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	plan, ok := domain.GetPlan(req.LicenseID)
	if !ok {
		return nil, domain.ErrBadRequest("invalid license selected")
	}
	cycle, err := domain.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		return nil, err
	}

	attempt, ok := s.attempts.begin(identity.UserID)
	if !ok {
		return nil, domain.ErrConflict("checkout already in progress")
	}

	resp, err := s.run(ctx, attempt, identity, plan, cycle)
	if err != nil {
		// Releasing the guard on every abort is what lets the user retry.
		s.attempts.finish(attempt, StateAborted)
		return nil, err
	}
	return resp, nil
}

func (s *CheckoutService) run(ctx context.Context, attempt *Attempt, identity domain.Identity, plan domain.Plan, cycle domain.BillingCycle) (*domain.CheckoutResponse, error) {
	// Step 1: verify the customer record exists, creating it if needed.
	// Creation is idempotent on the licensing side and never rolled back.
	exists, err := s.directory.Exists(ctx, identity.Email)
	if err != nil {
		return nil, domain.ErrCollaborator("could not verify customer record", err)
	}
	if !exists {
		if err := s.directory.Create(ctx, identity.Name, identity.Email, customerSource); err != nil {
			return nil, domain.ErrCollaborator("could not create customer record", err)
		}
	}
	attempt.setState(StateCustomerVerified)

	pricing := domain.ComputePricing(plan.BaseMonthlyPrice, cycle)

	if plan.IsFree() {
		return s.activateFreePlan(ctx, attempt, identity, plan, pricing)
	}
	return s.startPaidCheckout(ctx, attempt, identity, plan, cycle, pricing)
}

// activateFreePlan issues a zero-amount purchase and redirects to the app.
// The payment gateway is never involved for free plans.
func (s *CheckoutService) activateFreePlan(ctx context.Context, attempt *Attempt, identity domain.Identity, plan domain.Plan, pricing domain.PricedOrder) (*domain.CheckoutResponse, error) {
	_, err := s.licensing.Purchase(ctx, identity.Name, identity.Email, plan.LicenseID, domain.CycleMonthly, decimal.Zero, "INR")
	if err != nil {
		return nil, domain.ErrCollaborator("could not activate free plan", err)
	}

	s.attempts.finish(attempt, StateFreePlanActivated)
	log.Printf("free plan activated for %s (%s)", identity.Email, plan.LicenseID)

	return &domain.CheckoutResponse{
		Outcome:     domain.OutcomeFreePlanActivated,
		AttemptID:   attempt.ID,
		RedirectURL: s.appURL,
		Pricing:     pricing.Display(),
	}, nil
}

// startPaidCheckout creates the license purchase and the gateway order, then
// suspends until the widget's callback. The purchase goes to the licensing
// backend with the normalized cycle; the gateway order keeps the original
// cycle and the amount in paise.
func (s *CheckoutService) startPaidCheckout(ctx context.Context, attempt *Attempt, identity domain.Identity, plan domain.Plan, cycle domain.BillingCycle, pricing domain.PricedOrder) (*domain.CheckoutResponse, error) {
	purchase, err := s.licensing.Purchase(ctx, identity.Name, identity.Email, plan.LicenseID, cycle.Normalized(), pricing.Total, "INR")
	if err != nil {
		return nil, domain.ErrCollaborator("failed to create transaction", err)
	}
	attempt.bindTransaction(purchase.TransactionID)
	attempt.setState(StatePurchaseCreated)

	now := time.Now()
	txn := &domain.Transaction{
		ID:           purchase.TransactionID,
		AttemptID:    attempt.ID,
		UserID:       purchase.UserID,
		LicenseID:    plan.LicenseID,
		DisplayCycle: cycle,
		BackendCycle: cycle.Normalized(),
		Amount:       pricing.Total,
		Currency:     "INR",
		Status:       domain.TxnCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.txns.Create(ctx, txn); err != nil {
		// The purchase exists in the licensing system; leave it for
		// reconciliation rather than pretending the checkout never happened.
		log.Printf("failed to persist transaction %s: %v", txn.ID, err)
		return nil, domain.ErrInternal("failed to record transaction", err)
	}

	order, err := s.gateway.CreateOrder(ctx, purchase.UserID, plan.LicenseID, cycle, pricing.AmountInPaise())
	if err != nil {
		// No rollback of the purchase: it stays in 'created' for the
		// reconciliation scan to find.
		return nil, domain.ErrCollaborator("failed to create payment order", err)
	}

	if err := s.txns.AttachGatewayOrder(ctx, txn.ID, order.OrderID, order.Key, domain.TxnGatewayOrderCreated); err != nil {
		return nil, domain.ErrInternal("failed to record payment order", err)
	}
	attempt.setState(StateGatewayOrder)

	if err := s.txns.UpdateStatus(ctx, txn.ID, domain.TxnAwaitingCallback, ""); err != nil {
		return nil, domain.ErrInternal("failed to record payment order", err)
	}
	attempt.setState(StateAwaitingCallback)
	attempt.armTimeout(s.gatewayTimeout, func() { s.expire(attempt) })

	return &domain.CheckoutResponse{
		Outcome:        domain.OutcomeAwaitingGateway,
		AttemptID:      attempt.ID,
		TransactionID:  txn.ID,
		GatewayKey:     order.Key,
		GatewayOrderID: order.OrderID,
		AmountInPaise:  order.Amount,
		Currency:       order.Currency,
		PrefillName:    identity.Name,
		PrefillEmail:   identity.Email,
		Pricing:        pricing.Display(),
	}, nil
}

// HandleCallback processes the gateway's success callback: it verifies the
// payment server-side and settles the transaction. A failed verification is
// terminal — money may have moved, so this is a support case, never an
// automatic retry.
func (s *CheckoutService) HandleCallback(ctx context.Context, req *domain.VerifyRequest) (*domain.Transaction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	txn, err := s.txns.FindByID(ctx, req.TransactionID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load transaction", err)
	}
	if txn == nil {
		return nil, domain.ErrNotFound("transaction not found")
	}
	if !txn.Status.CanTransition(domain.TxnVerified) {
		return nil, domain.ErrConflict("transaction is not awaiting verification")
	}

	attempt, hasAttempt := s.attempts.byTransaction(txn.ID)

	if err := s.gateway.Verify(ctx, req.TransactionID, req.GatewayPaymentID, req.GatewayOrderID, req.GatewaySignature); err != nil {
		if _, uerr := s.txns.Settle(ctx, txn.ID, domain.TxnFailed, "verification failed"); uerr != nil {
			log.Printf("failed to mark transaction %s failed: %v", txn.ID, uerr)
		}
		if hasAttempt {
			s.attempts.finish(attempt, StateVerificationFailed)
		}
		return nil, &domain.AppError{Code: http.StatusPaymentRequired, Message: "payment verification failed, please contact support", Err: err}
	}

	settled, err := s.txns.Settle(ctx, txn.ID, domain.TxnVerified, "")
	if err != nil {
		log.Printf("failed to mark transaction %s verified: %v", txn.ID, err)
	} else if !settled {
		// The gateway timeout settled the transaction between our status
		// check and this write.
		return nil, domain.ErrConflict("transaction is not awaiting verification")
	}
	if hasAttempt {
		s.attempts.finish(attempt, StateVerified)
	}

	txn.Status = domain.TxnVerified
	log.Printf("payment verified for transaction %s", txn.ID)
	return txn, nil
}

// expire fires when the gateway suspension outlives its timeout: the user
// abandoned the widget and no callback will come. The transaction is failed
// locally and the guard released so the user can start over.
func (s *CheckoutService) expire(attempt *Attempt) {
	if attempt.State() != StateAwaitingCallback {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if id := attempt.Transaction(); id != "" {
		settled, err := s.txns.Settle(ctx, id, domain.TxnFailed, "gateway callback timeout")
		if err != nil {
			log.Printf("failed to expire transaction %s: %v", id, err)
		} else if !settled {
			// The verification callback won the race and owns the attempt's
			// terminal state. A settled transaction stays settled.
			return
		}
	}
	s.attempts.finish(attempt, StateAborted)
	log.Printf("checkout attempt %s expired waiting for gateway callback", attempt.ID)
}

// LookupAttempt returns an in-flight or recently finished attempt.
func (s *CheckoutService) LookupAttempt(attemptID string) (*Attempt, bool) {
	return s.attempts.lookup(attemptID)
}

// GetTransaction serves the post-payment confirmation view.
func (s *CheckoutService) GetTransaction(ctx context.Context, transactionID string) (*client.TransactionDetails, error) {
	details, err := s.licensing.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, domain.ErrCollaborator("failed to load transaction details", err)
	}
	return details, nil
}

// StuckTransactions returns non-terminal transactions for reconciliation.
func (s *CheckoutService) StuckTransactions(ctx context.Context, olderThan time.Duration) ([]*domain.Transaction, error) {
	txns, err := s.txns.FindStuck(ctx, olderThan)
	if err != nil {
		return nil, domain.ErrInternal("failed to scan transactions", err)
	}
	return txns, nil
}
