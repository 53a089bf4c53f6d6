package handler

import (
	"net/http"

	"github.com/sampada-shukla/workeye/internal/domain"
)

// PlansHandler handles plan-related endpoints.
type PlansHandler struct{}

// NewPlansHandler creates a new PlansHandler.
func NewPlansHandler() *PlansHandler {
	return &PlansHandler{}
}

// List handles GET /api/plans: every plan with its price breakdown for all
// four billing cycles, ready for the pricing page.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	plans := domain.AvailablePlans()
	quotes := make([]domain.PlanQuote, 0, len(plans))
	for _, p := range plans {
		quotes = append(quotes, domain.QuoteAllCycles(p))
	}
	JSON(w, http.StatusOK, quotes)
}
