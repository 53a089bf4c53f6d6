package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/external/customer-exists", r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get("x-api-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]bool{"exists": true})
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	exists, err := c.Exists(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCustomerCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/external/customer-sync", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WorkEye", body["source"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	assert.NoError(t, c.Create(context.Background(), "Alice", "alice@example.com", "WorkEye"))
}

func TestPurchase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lms/purchase-license", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "monthly", body["billingCycle"])
		assert.Equal(t, "336.3", body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"userId": "user-1", "transactionId": "txn-1"},
		})
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	amount := decimal.RequireFromString("336.3")
	res, err := c.Purchase(context.Background(), "Alice", "alice@example.com", "lic-team", domain.CycleMonthly, amount, "INR")
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.UserID)
	assert.Equal(t, "txn-1", res.TransactionID)
}

func TestPurchaseMissingTransactionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"userId": "user-1"}})
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	_, err := c.Purchase(context.Background(), "Alice", "alice@example.com", "lic-team", domain.CycleMonthly, decimal.Zero, "INR")
	require.Error(t, err)
}

func TestErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "starter plan already used"})
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	_, err := c.Purchase(context.Background(), "Alice", "alice@example.com", "lic-starter", domain.CycleMonthly, decimal.Zero, "INR")
	require.Error(t, err)

	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Code)
	assert.Equal(t, "starter plan already used", appErr.Message)
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/transaction/txn-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"transactionId": "txn-1",
			"plan":          "Team",
			"amount":        "336.3",
			"currency":      "INR",
			"status":        "verified",
		})
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	details, err := c.GetTransaction(context.Background(), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "Team", details.Plan)
	assert.Equal(t, "verified", details.Status)
	assert.Equal(t, "336.3", details.Amount.String())
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := NewLicensingClient(srv.URL, "api-key")
	_, err := c.Exists(context.Background(), "alice@example.com")
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.Code)
}
