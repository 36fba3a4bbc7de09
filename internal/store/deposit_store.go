package store

import (
	"context"
	"time"
)

type DepositStore struct {
	db DB
}

type DepositInput struct {
	ID               string
	UserID           string
	PaymentReference string
	Amount           int64
}

type Deposit struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	PaymentReference string    `db:"payment_reference"`
	Amount           int64     `db:"amount"`
	CreatedAt        time.Time `db:"created_at"`
}

func NewDepositStore(db DB) *DepositStore {
	return &DepositStore{db: db}
}

// Create dedupes on the unique payment_reference index so duplicate
// webhook deliveries cannot credit twice.
func (s *DepositStore) Create(ctx context.Context, tx Execer, input DepositInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deposits (id, user_id, payment_reference, amount)
		VALUES ($1, $2, $3, $4)
	`, input.ID, input.UserID, input.PaymentReference, input.Amount)
	return err
}

func (s *DepositStore) SumAll(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(amount), 0) FROM deposits`)
	return sum, err
}
