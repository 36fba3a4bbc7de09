package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"tossearn/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrVersionConflict = errors.New("settings changed concurrently")
)

// PrizeTier is one spin-wheel segment. Probability of a tier is its weight
// divided by the total weight, so the distribution is configuration, not code.
type PrizeTier struct {
	Amount int64 `json:"amount"`
	Weight int64 `json:"weight"`
}

// Settings is an immutable snapshot of the platform configuration. Engines
// read the current snapshot per operation; admin updates swap in a new one.
type Settings struct {
	Version                 int64
	CoinTossMinBet          int64
	CoinTossMaxBet          int64
	CoinTossPayout          decimal.Decimal
	SpinWheelCost           int64
	SpinPrizes              []PrizeTier
	ReferralBonus           int64
	WelcomeBonus            int64
	MinWithdrawal           int64
	WithdrawalAutoThreshold int64
}

func (s Settings) Validate() error {
	if s.CoinTossMinBet <= 0 || s.CoinTossMaxBet < s.CoinTossMinBet {
		return ErrInvalidSettings
	}
	if s.CoinTossPayout.LessThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidSettings
	}
	if s.SpinWheelCost <= 0 {
		return ErrInvalidSettings
	}
	if len(s.SpinPrizes) == 0 {
		return ErrInvalidSettings
	}
	for _, tier := range s.SpinPrizes {
		if tier.Amount < 0 || tier.Weight <= 0 {
			return ErrInvalidSettings
		}
	}
	if s.ReferralBonus < 0 || s.WelcomeBonus < 0 {
		return ErrInvalidSettings
	}
	if s.MinWithdrawal <= 0 || s.WithdrawalAutoThreshold < 0 {
		return ErrInvalidSettings
	}
	return nil
}

func (s Settings) TotalSpinWeight() int64 {
	var total int64
	for _, tier := range s.SpinPrizes {
		total += tier.Weight
	}
	return total
}

type SettingsStore interface {
	Get(ctx context.Context) (store.SettingsRow, error)
	Update(ctx context.Context, tx store.Execer, row store.SettingsRow) (int64, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// Service holds the live snapshot. Reads are lock-free pointer loads, so
// an in-flight operation sees either the old or the new configuration,
// never a partial mix.
type Service struct {
	store    SettingsStore
	txRunner TxRunner
	current  atomic.Pointer[Settings]
}

func NewService(settingsStore SettingsStore, txRunner TxRunner) *Service {
	return &Service{store: settingsStore, txRunner: txRunner}
}

func (s *Service) Load(ctx context.Context) error {
	row, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	parsed, err := fromRow(row)
	if err != nil {
		return err
	}
	s.current.Store(&parsed)
	return nil
}

func (s *Service) Current() Settings {
	return *s.current.Load()
}

// Update validates, persists against the loaded version, then swaps the
// snapshot. A concurrent admin update loses with ErrVersionConflict.
func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	base := s.Current()
	next.Version = base.Version
	row, err := toRow(next)
	if err != nil {
		return Settings{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		affected, err := s.store.Update(ctx, tx, row)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return Settings{}, err
	}
	next.Version = base.Version + 1
	s.current.Store(&next)
	return next, nil
}

func fromRow(row store.SettingsRow) (Settings, error) {
	payout, err := decimal.NewFromString(row.CoinTossPayout)
	if err != nil {
		return Settings{}, ErrInvalidSettings
	}
	var prizes []PrizeTier
	if err := json.Unmarshal(row.SpinPrizes, &prizes); err != nil {
		return Settings{}, ErrInvalidSettings
	}
	parsed := Settings{
		Version:                 row.Version,
		CoinTossMinBet:          row.CoinTossMinBet,
		CoinTossMaxBet:          row.CoinTossMaxBet,
		CoinTossPayout:          payout,
		SpinWheelCost:           row.SpinWheelCost,
		SpinPrizes:              prizes,
		ReferralBonus:           row.ReferralBonus,
		WelcomeBonus:            row.WelcomeBonus,
		MinWithdrawal:           row.MinWithdrawal,
		WithdrawalAutoThreshold: row.WithdrawalAutoThreshold,
	}
	if err := parsed.Validate(); err != nil {
		return Settings{}, err
	}
	return parsed, nil
}

func toRow(s Settings) (store.SettingsRow, error) {
	prizes, err := json.Marshal(s.SpinPrizes)
	if err != nil {
		return store.SettingsRow{}, err
	}
	return store.SettingsRow{
		ID:                      1,
		Version:                 s.Version,
		CoinTossMinBet:          s.CoinTossMinBet,
		CoinTossMaxBet:          s.CoinTossMaxBet,
		CoinTossPayout:          s.CoinTossPayout.String(),
		SpinWheelCost:           s.SpinWheelCost,
		SpinPrizes:              prizes,
		ReferralBonus:           s.ReferralBonus,
		WelcomeBonus:            s.WelcomeBonus,
		MinWithdrawal:           s.MinWithdrawal,
		WithdrawalAutoThreshold: s.WithdrawalAutoThreshold,
	}, nil
}
