package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sampada-shukla/workeye/internal/client"
	"github.com/sampada-shukla/workeye/internal/contextkeys"
	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/sampada-shukla/workeye/internal/service"
	"github.com/sampada-shukla/workeye/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct{}

func (stubDirectory) Exists(ctx context.Context, email string) (bool, error) { return true, nil }
func (stubDirectory) Create(ctx context.Context, name, email, source string) error {
	return nil
}

type stubLicensing struct{}

func (stubLicensing) Purchase(ctx context.Context, name, email, licenseID string, cycle domain.BillingCycle, amount decimal.Decimal, currency string) (*client.PurchaseResult, error) {
	return &client.PurchaseResult{UserID: "user-1", TransactionID: "txn-1"}, nil
}
func (stubLicensing) GetTransaction(ctx context.Context, transactionID string) (*client.TransactionDetails, error) {
	return &client.TransactionDetails{TransactionID: transactionID, Plan: "Team", Status: "verified"}, nil
}

type stubGateway struct{}

func (stubGateway) CreateOrder(ctx context.Context, userID, licenseID string, cycle domain.BillingCycle, amountInPaise int64) (*payment.Order, error) {
	return &payment.Order{OrderID: "order-1", Key: "rzp_key", Amount: amountInPaise, Currency: "INR"}, nil
}
func (stubGateway) Verify(ctx context.Context, transactionID, paymentID, orderID, signature string) error {
	return nil
}

type stubStore struct{ txns map[string]*domain.Transaction }

func (s stubStore) Create(ctx context.Context, t *domain.Transaction) error {
	s.txns[t.ID] = t
	return nil
}
func (s stubStore) AttachGatewayOrder(ctx context.Context, id, orderID, key string, status domain.TransactionStatus) error {
	s.txns[id].Status = status
	return nil
}
func (s stubStore) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, reason string) error {
	if t, ok := s.txns[id]; ok {
		t.Status = status
	}
	return nil
}
func (s stubStore) Settle(ctx context.Context, id string, status domain.TransactionStatus, reason string) (bool, error) {
	t, ok := s.txns[id]
	if !ok || t.Status.Terminal() {
		return false, nil
	}
	t.Status = status
	return true, nil
}
func (s stubStore) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.txns[id], nil
}
func (s stubStore) FindStuck(ctx context.Context, olderThan time.Duration) ([]*domain.Transaction, error) {
	return nil, nil
}

func newTestHandler() *CheckoutHandler {
	svc := service.NewCheckoutService(
		stubDirectory{}, stubLicensing{}, stubGateway{},
		stubStore{txns: make(map[string]*domain.Transaction)},
		"https://app.workeye.test", time.Minute,
	)
	return NewCheckoutHandler(svc)
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), contextkeys.UserID, "user-1")
	ctx = context.WithValue(ctx, contextkeys.UserName, "Alice")
	ctx = context.WithValue(ctx, contextkeys.UserEmail, "alice@example.com")
	return r.WithContext(ctx)
}

func TestConfirmRequiresAuth(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/payment/checkout", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Confirm(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfirmRejectsBadJSON(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()

	h.Confirm(w, authedRequest(http.MethodPost, "/api/payment/checkout", `{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPaidPlan(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()

	body := `{"licenseId":"lic-team","billingCycle":"yearly"}`
	h.Confirm(w, authedRequest(http.MethodPost, "/api/payment/checkout", body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"awaiting_gateway"`)
	assert.Contains(t, w.Body.String(), `"order-1"`)
}

func TestConfirmFreePlan(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()

	body := `{"licenseId":"lic-starter","billingCycle":"monthly"}`
	h.Confirm(w, authedRequest(http.MethodPost, "/api/payment/checkout", body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"free_plan_activated"`)
	assert.Contains(t, w.Body.String(), "https://app.workeye.test")
}

func TestVerifyRejectsIncompletePayload(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()

	h.Verify(w, authedRequest(http.MethodPost, "/api/payment/verify", `{"transactionId":"txn-1"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPlansListIncludesQuotes(t *testing.T) {
	h := NewPlansHandler()
	w := httptest.NewRecorder()

	h.List(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lic-starter")
	assert.Contains(t, w.Body.String(), "half-yearly")
}
