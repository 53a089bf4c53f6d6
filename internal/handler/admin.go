package handler

import (
	"net/http"
	"time"

	"github.com/sampada-shukla/workeye/internal/service"
)

// AdminHandler exposes reconciliation endpoints for operators.
type AdminHandler struct {
	svc *service.CheckoutService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.CheckoutService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// StuckTransactions handles GET /api/admin/transactions/stuck. It lists
// transactions that never reached a terminal state — purchases that exist in
// the licensing system but whose gateway flow went nowhere. Optional
// ?olderThan=30m narrows the scan (default 1h).
func (h *AdminHandler) StuckTransactions(w http.ResponseWriter, r *http.Request) {
	olderThan := time.Hour
	if v := r.URL.Query().Get("olderThan"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid olderThan duration"})
			return
		}
		olderThan = d
	}

	txns, err := h.svc.StuckTransactions(r.Context(), olderThan)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(txns),
		"transactions": txns,
	})
}
