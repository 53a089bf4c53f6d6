package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sampada-shukla/workeye/internal/domain"
)

// TransactionRepository persists the local transaction state machine so
// non-terminal transactions can be found and reconciled later.
type TransactionRepository struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const txnColumns = `id, attempt_id, user_id, license_id, display_cycle, backend_cycle,
	amount, currency, COALESCE(gateway_order, ''), COALESCE(gateway_key, ''),
	status, COALESCE(failure_reason, ''), created_at, updated_at`

// Create inserts a new transaction in its initial status.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, attempt_id, user_id, license_id, display_cycle, backend_cycle, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.AttemptID, t.UserID, t.LicenseID, t.DisplayCycle, t.BackendCycle,
		t.Amount, t.Currency, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// AttachGatewayOrder records the gateway order and advances the status.
func (r *TransactionRepository) AttachGatewayOrder(ctx context.Context, id, orderID, key string, status domain.TransactionStatus) error {
	_, err := r.db.Exec(ctx,
		"UPDATE transactions SET gateway_order = $1, gateway_key = $2, status = $3, updated_at = NOW() WHERE id = $4",
		orderID, key, status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to attach gateway order: %w", err)
	}
	return nil
}

// UpdateStatus advances the transaction lifecycle, recording a failure
// reason for failed transitions.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, reason string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE transactions SET status = $1, failure_reason = NULLIF($2, ''), updated_at = NOW() WHERE id = $3",
		status, reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

// Settle moves a transaction into a terminal status. The guard in the WHERE
// clause makes late writers lose: a timeout firing after the verification
// callback (or the reverse) cannot overwrite a settled transaction. Reports
// whether the row changed.
func (r *TransactionRepository) Settle(ctx context.Context, id string, status domain.TransactionStatus, reason string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE transactions SET status = $1, failure_reason = NULLIF($2, ''), updated_at = NOW() WHERE id = $3 AND status NOT IN ($4, $5)",
		status, reason, id, domain.TxnVerified, domain.TxnFailed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to settle transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindByID returns a transaction by its licensing-assigned ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, "SELECT "+txnColumns+" FROM transactions WHERE id = $1", id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return t, nil
}

// FindStuck returns non-terminal transactions older than the cutoff. These
// are candidates for manual reconciliation: a purchase exists in the
// licensing system but the gateway flow never reached a terminal state.
func (r *TransactionRepository) FindStuck(ctx context.Context, olderThan time.Duration) ([]*domain.Transaction, error) {
	query := "SELECT " + txnColumns + ` FROM transactions
		WHERE status NOT IN ('verified', 'failed') AND updated_at < NOW() - make_interval(secs => $1)
		ORDER BY updated_at ASC`
	rows, err := r.db.Query(ctx, query, olderThan.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.AttemptID, &t.UserID, &t.LicenseID, &t.DisplayCycle, &t.BackendCycle,
		&t.Amount, &t.Currency, &t.GatewayOrderID, &t.GatewayKey,
		&t.Status, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
