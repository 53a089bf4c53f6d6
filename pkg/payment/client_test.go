package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	sig := sign("order-1", "pay-1", "secret")
	assert.True(t, VerifySignature("order-1", "pay-1", sig, "secret"))
	assert.False(t, VerifySignature("order-1", "pay-1", sig, "wrong-secret"))
	assert.False(t, VerifySignature("order-2", "pay-1", sig, "secret"))
	assert.False(t, VerifySignature("order-1", "pay-1", "tampered", "secret"))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/create-order", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "quarterly", body["billingCycle"])
		assert.Equal(t, float64(33630), body["amount"])

		json.NewEncoder(w).Encode(Order{OrderID: "order-1", Key: "rzp_live", Amount: 33630, Currency: "INR"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "secret")
	order, err := c.CreateOrder(context.Background(), "user-1", "lic-team", domain.CycleQuarterly, 33630)
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, "rzp_live", order.Key)
	assert.Equal(t, int64(33630), order.Amount)
}

func TestCreateOrderSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "amount below minimum"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "secret")
	_, err := c.CreateOrder(context.Background(), "user-1", "lic-team", domain.CycleMonthly, 1)
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "amount below minimum", appErr.Message)
}

func TestVerifyChecksSignatureLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "secret")
	err := c.Verify(context.Background(), "txn-1", "pay-1", "order-1", "garbage")
	require.Error(t, err)
	assert.False(t, called, "bad signature must not reach the wire")
}

func TestVerifyHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/verify-payment", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "txn-1", body["transactionId"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "secret")
	sig := sign("order-1", "pay-1", "secret")
	assert.NoError(t, c.Verify(context.Background(), "txn-1", "pay-1", "order-1", sig))
}

func TestVerifyRejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "verification failed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "secret")
	sig := sign("order-1", "pay-1", "secret")
	err := c.Verify(context.Background(), "txn-1", "pay-1", "order-1", sig)
	require.Error(t, err)
}
