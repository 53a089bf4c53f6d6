package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AttemptState tracks where a single checkout attempt is in the sequence.
// It is a superset of the persisted transaction statuses: free-plan and
// aborted outcomes never create a transaction but still have a state here.
type AttemptState string

const (
	StateIdle               AttemptState = "idle"
	StateCustomerVerified   AttemptState = "customer_verified"
	StateFreePlanActivated  AttemptState = "free_plan_activated"
	StatePurchaseCreated    AttemptState = "purchase_created"
	StateGatewayOrder       AttemptState = "gateway_order_created"
	StateAwaitingCallback   AttemptState = "awaiting_gateway_callback"
	StateVerified           AttemptState = "verified"
	StateVerificationFailed AttemptState = "verification_failed"
	StateAborted            AttemptState = "aborted"
)

// Terminal reports whether the attempt has finished, successfully or not.
func (s AttemptState) Terminal() bool {
	switch s {
	case StateFreePlanActivated, StateVerified, StateVerificationFailed, StateAborted:
		return true
	}
	return false
}

// Attempt is the state object for one in-flight checkout. One attempt exists
// per user at a time; it owns the re-entrancy guard, the gateway-callback
// timeout and the state stream consumed by the WebSocket handler.
type Attempt struct {
	ID     string
	UserID string

	mu            sync.Mutex
	transactionID string
	state         AttemptState
	subs          []chan AttemptState
	timer         *time.Timer
}

func newAttempt(userID string) *Attempt {
	return &Attempt{
		ID:     uuid.New().String(),
		UserID: userID,
		state:  StateIdle,
	}
}

// State returns the current state.
func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Transaction returns the licensing transaction bound to this attempt,
// or "" before the purchase step.
func (a *Attempt) Transaction() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transactionID
}

// bindTransaction records the purchase's transaction ID. Reads happen from
// other request goroutines, so the write goes through the attempt's mutex.
func (a *Attempt) bindTransaction(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transactionID = id
}

// setState advances the attempt and notifies subscribers. Subscriber
// channels are closed on terminal states.
func (a *Attempt) setState(s AttemptState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Terminal() {
		return
	}
	a.state = s
	for _, ch := range a.subs {
		select {
		case ch <- s:
		default: // slow subscriber, drop the update
		}
		if s.Terminal() {
			close(ch)
		}
	}
	if s.Terminal() {
		a.subs = nil
		if a.timer != nil {
			a.timer.Stop()
			a.timer = nil
		}
	}
}

// Subscribe returns a channel of state transitions. The channel is closed
// when the attempt reaches a terminal state. The current state is delivered
// first so late subscribers see where the attempt stands.
func (a *Attempt) Subscribe() <-chan AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch := make(chan AttemptState, 8)
	ch <- a.state
	if a.state.Terminal() {
		close(ch)
		return ch
	}
	a.subs = append(a.subs, ch)
	return ch
}

// armTimeout schedules expiry of the gateway suspension.
func (a *Attempt) armTimeout(d time.Duration, expire func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timer = time.AfterFunc(d, expire)
}

// attemptRegistry holds in-flight attempts, keyed both by user (for the
// re-entrancy guard) and by attempt ID (for lookups from the status stream
// and the verify callback).
type attemptRegistry struct {
	mu     sync.Mutex
	byUser map[string]*Attempt
	byID   map[string]*Attempt
}

func newAttemptRegistry() *attemptRegistry {
	return &attemptRegistry{
		byUser: make(map[string]*Attempt),
		byID:   make(map[string]*Attempt),
	}
}

// begin registers a new attempt for the user. It fails if the user already
// has one in flight; rapid repeated confirm clicks land here.
func (r *attemptRegistry) begin(userID string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[userID]; ok && !existing.State().Terminal() {
		return nil, false
	}
	a := newAttempt(userID)
	r.byUser[userID] = a
	r.byID[a.ID] = a
	return a, true
}

// lookup returns an attempt by ID.
func (r *attemptRegistry) lookup(attemptID string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[attemptID]
	return a, ok
}

// byTransaction returns the attempt that owns a transaction ID.
func (r *attemptRegistry) byTransaction(transactionID string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Transaction() == transactionID {
			return a, true
		}
	}
	return nil, false
}

// finish moves the attempt to a terminal state and releases the user's
// guard so a new checkout can start.
func (r *attemptRegistry) finish(a *Attempt, s AttemptState) {
	a.setState(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[a.UserID]; ok && cur.ID == a.ID {
		delete(r.byUser, a.UserID)
	}
	// Keep the terminal attempt around briefly so late status-stream
	// subscribers still find it, then drop it.
	time.AfterFunc(10*time.Minute, func() {
		r.mu.Lock()
		delete(r.byID, a.ID)
		r.mu.Unlock()
	})
}
