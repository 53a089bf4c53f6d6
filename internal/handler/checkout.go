package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sampada-shukla/workeye/internal/contextkeys"
	"github.com/sampada-shukla/workeye/internal/domain"
	"github.com/sampada-shukla/workeye/internal/service"
)

// CheckoutHandler exposes the checkout flow: confirm, verify and the
// post-payment confirmation view.
type CheckoutHandler struct {
	svc *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Confirm handles POST /api/payment/checkout.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r)
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req domain.CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.svc.Confirm(r.Context(), identity, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// Verify handles POST /api/payment/verify — the gateway callback payload
// forwarded by the browser after the payment widget completes.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	txn, err := h.svc.HandleCallback(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, txn)
}

// GetTransaction handles GET /api/payment/transaction/{id} for the
// payment-success page.
func (h *CheckoutHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSON(w, http.StatusBadRequest, map[string]string{"error": "missing transaction id"})
		return
	}

	details, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, details)
}

func identityFromContext(r *http.Request) (domain.Identity, bool) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		return domain.Identity{}, false
	}
	name, _ := r.Context().Value(contextkeys.UserName).(string)
	email, _ := r.Context().Value(contextkeys.UserEmail).(string)
	return domain.Identity{UserID: userID, Name: name, Email: email}, true
}
