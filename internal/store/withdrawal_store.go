package store

import (
	"context"
	"time"
)

const (
	WithdrawalPending     = "pending"
	WithdrawalAutoSettled = "auto_settled"
	WithdrawalApproved    = "approved"
	WithdrawalRejected    = "rejected"
)

const (
	MethodUPI  = "upi"
	MethodBank = "bank"
)

type WithdrawalStore struct {
	db DB
}

type WithdrawalRequestInput struct {
	ID                string
	UserID            string
	Amount            int64
	Method            string
	UPIID             *string
	AccountNumber     *string
	IFSCCode          *string
	Status            string
	HoldCorrelationID string
}

type WithdrawalRequest struct {
	ID                string     `db:"id"`
	UserID            string     `db:"user_id"`
	Username          string     `db:"username"`
	Amount            int64      `db:"amount"`
	Method            string     `db:"method"`
	UPIID             *string    `db:"upi_id"`
	AccountNumber     *string    `db:"account_number"`
	IFSCCode          *string    `db:"ifsc_code"`
	Status            string     `db:"status"`
	HoldCorrelationID string     `db:"hold_correlation_id"`
	ResolvedBy        *string    `db:"resolved_by"`
	CreatedAt         time.Time  `db:"created_at"`
	ResolvedAt        *time.Time `db:"resolved_at"`
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, input WithdrawalRequestInput) error {
	var resolvedAt any
	if input.Status != WithdrawalPending {
		resolvedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawal_requests
			(id, user_id, amount, method, upi_id, account_number, ifsc_code, status, hold_correlation_id, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, input.ID, input.UserID, input.Amount, input.Method, input.UPIID, input.AccountNumber, input.IFSCCode, input.Status, input.HoldCorrelationID, resolvedAt)
	return err
}

// GetForUpdate locks the request row so approval and rejection of the same
// request serialize and the pending check cannot race.
func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, requestID string) (WithdrawalRequest, error) {
	var row WithdrawalRequest
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, '' AS username, amount, method, upi_id, account_number, ifsc_code,
		       status, hold_correlation_id, resolved_by, created_at, resolved_at
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID)
	if err != nil {
		return WithdrawalRequest{}, err
	}
	return row, nil
}

func (s *WithdrawalStore) Resolve(ctx context.Context, tx Execer, requestID, status, adminID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE id = $3
	`, status, adminID, requestID)
	return err
}

func (s *WithdrawalStore) ListPending(ctx context.Context, limit, offset int) ([]WithdrawalRequest, error) {
	var rows []WithdrawalRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT w.id, w.user_id, u.username, w.amount, w.method, w.upi_id, w.account_number, w.ifsc_code,
		       w.status, w.hold_correlation_id, w.resolved_by, w.created_at, w.resolved_at
		FROM withdrawal_requests w
		JOIN users u ON u.id = w.user_id
		WHERE w.status = 'pending'
		ORDER BY w.created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]WithdrawalRequest, error) {
	var rows []WithdrawalRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, '' AS username, amount, method, upi_id, account_number, ifsc_code,
		       status, hold_correlation_id, resolved_by, created_at, resolved_at
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WithdrawalStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'
	`)
	return count, err
}

// SumSettled totals withdrawals whose hold became the final debit.
func (s *WithdrawalStore) SumSettled(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM withdrawal_requests
		WHERE status IN ('auto_settled', 'approved')
	`)
	return sum, err
}
