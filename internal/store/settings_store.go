package store

import (
	"context"
	"time"
)

type SettingsStore struct {
	db DB
}

// SettingsRow is the persisted form of the platform settings singleton.
// Money columns are paise; spin prizes are a JSON array of weighted tiers.
type SettingsRow struct {
	ID                      int64     `db:"id"`
	Version                 int64     `db:"version"`
	CoinTossMinBet          int64     `db:"coin_toss_min_bet"`
	CoinTossMaxBet          int64     `db:"coin_toss_max_bet"`
	CoinTossPayout          string    `db:"coin_toss_payout"`
	SpinWheelCost           int64     `db:"spin_wheel_cost"`
	SpinPrizes              []byte    `db:"spin_prizes"`
	ReferralBonus           int64     `db:"referral_bonus"`
	WelcomeBonus            int64     `db:"welcome_bonus"`
	MinWithdrawal           int64     `db:"min_withdrawal"`
	WithdrawalAutoThreshold int64     `db:"withdrawal_auto_threshold"`
	UpdatedAt               time.Time `db:"updated_at"`
}

func NewSettingsStore(db DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(ctx context.Context) (SettingsRow, error) {
	var row SettingsRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, version, coin_toss_min_bet, coin_toss_max_bet, coin_toss_payout,
		       spin_wheel_cost, spin_prizes, referral_bonus, welcome_bonus,
		       min_withdrawal, withdrawal_auto_threshold, updated_at
		FROM platform_settings
		WHERE id = 1
	`)
	if err != nil {
		return SettingsRow{}, err
	}
	return row, nil
}

// Update replaces the singleton row and bumps its version. The version in
// the WHERE clause makes concurrent admin updates first-writer-wins.
func (s *SettingsStore) Update(ctx context.Context, tx Execer, row SettingsRow) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE platform_settings
		SET version = version + 1,
		    coin_toss_min_bet = $1,
		    coin_toss_max_bet = $2,
		    coin_toss_payout = $3,
		    spin_wheel_cost = $4,
		    spin_prizes = $5,
		    referral_bonus = $6,
		    welcome_bonus = $7,
		    min_withdrawal = $8,
		    withdrawal_auto_threshold = $9,
		    updated_at = NOW()
		WHERE id = 1 AND version = $10
	`, row.CoinTossMinBet, row.CoinTossMaxBet, row.CoinTossPayout, row.SpinWheelCost,
		row.SpinPrizes, row.ReferralBonus, row.WelcomeBonus, row.MinWithdrawal,
		row.WithdrawalAutoThreshold, row.Version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
