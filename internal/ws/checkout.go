package ws

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sampada-shukla/workeye/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the HTTP level
	},
}

// CheckoutStreamHandler streams checkout attempt state transitions over a
// WebSocket so the browser can track a paid checkout while the payment
// widget is open. The stream closes once the attempt reaches a terminal
// state.
type CheckoutStreamHandler struct {
	checkout *service.CheckoutService
	auth     *service.AuthService
}

// NewCheckoutStreamHandler creates a new CheckoutStreamHandler.
func NewCheckoutStreamHandler(checkout *service.CheckoutService, auth *service.AuthService) *CheckoutStreamHandler {
	return &CheckoutStreamHandler{checkout: checkout, auth: auth}
}

// Handle upgrades HTTP to WebSocket and streams attempt states.
// URL: /api/payment/checkout/{attemptId}/events?token=JWT_TOKEN
func (h *CheckoutStreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptId")
	if attemptID == "" {
		http.Error(w, "missing attempt id", http.StatusBadRequest)
		return
	}

	// Authenticate via query param token (browsers cannot set headers on
	// WebSocket connections).
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	attempt, ok := h.checkout.LookupAttempt(attemptID)
	if !ok {
		http.Error(w, "attempt not found", http.StatusNotFound)
		return
	}
	if attempt.UserID != claims.Sub {
		http.Error(w, "attempt not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	states := attempt.Subscribe()
	for state := range states {
		msg := map[string]string{"attemptId": attempt.ID, "state": string(state)}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt finished"))
}
