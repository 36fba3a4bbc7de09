package store

import (
	"context"
	"time"
)

type ReferralStore struct {
	db DB
}

type ReferralCreditInput struct {
	ID         string
	ReferrerID string
	RefereeID  string
	Amount     int64
}

type ReferralCredit struct {
	ID         string    `db:"id"`
	ReferrerID string    `db:"referrer_id"`
	RefereeID  string    `db:"referee_id"`
	Username   string    `db:"username"`
	Amount     int64     `db:"amount"`
	CreatedAt  time.Time `db:"created_at"`
}

func NewReferralStore(db DB) *ReferralStore {
	return &ReferralStore{db: db}
}

// Create relies on the unique index on referee_id: a second credit for the
// same referee fails with a unique violation rather than double-paying.
func (s *ReferralStore) Create(ctx context.Context, tx Execer, input ReferralCreditInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO referral_credits (id, referrer_id, referee_id, amount)
		VALUES ($1, $2, $3, $4)
	`, input.ID, input.ReferrerID, input.RefereeID, input.Amount)
	return err
}

func (s *ReferralStore) ListByReferrer(ctx context.Context, referrerID string) ([]ReferralCredit, error) {
	var rows []ReferralCredit
	err := s.db.SelectContext(ctx, &rows, `
		SELECT r.id, r.referrer_id, r.referee_id, u.username, r.amount, r.created_at
		FROM referral_credits r
		JOIN users u ON u.id = r.referee_id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
