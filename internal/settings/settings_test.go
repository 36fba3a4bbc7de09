package settings

import (
	"context"
	"encoding/json"
	"testing"

	"tossearn/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type stubStore struct {
	getFn    func(ctx context.Context) (store.SettingsRow, error)
	updateFn func(ctx context.Context, tx store.Execer, row store.SettingsRow) (int64, error)
}

func (s stubStore) Get(ctx context.Context) (store.SettingsRow, error) {
	return s.getFn(ctx)
}

func (s stubStore) Update(ctx context.Context, tx store.Execer, row store.SettingsRow) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, row)
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func validSettings() Settings {
	return Settings{
		Version:        1,
		CoinTossMinBet: 100,
		CoinTossMaxBet: 100000,
		CoinTossPayout: decimal.RequireFromString("1.9"),
		SpinWheelCost:  500,
		SpinPrizes: []PrizeTier{
			{Amount: 100, Weight: 5},
			{Amount: 1000, Weight: 1},
		},
		ReferralBonus:           10000,
		WelcomeBonus:            10000,
		MinWithdrawal:           10000,
		WithdrawalAutoThreshold: 20000,
	}
}

func validRow(t *testing.T) store.SettingsRow {
	t.Helper()
	prizes, err := json.Marshal(validSettings().SpinPrizes)
	if err != nil {
		t.Fatalf("failed to marshal prizes: %v", err)
	}
	return store.SettingsRow{
		ID:                      1,
		Version:                 1,
		CoinTossMinBet:          100,
		CoinTossMaxBet:          100000,
		CoinTossPayout:          "1.9",
		SpinWheelCost:           500,
		SpinPrizes:              prizes,
		ReferralBonus:           10000,
		WelcomeBonus:            10000,
		MinWithdrawal:           10000,
		WithdrawalAutoThreshold: 20000,
	}
}

func TestValidateRejectsBadConfigurations(t *testing.T) {
	mutations := map[string]func(*Settings){
		"zero min bet":       func(s *Settings) { s.CoinTossMinBet = 0 },
		"max below min":      func(s *Settings) { s.CoinTossMaxBet = 50 },
		"payout at 1":        func(s *Settings) { s.CoinTossPayout = decimal.NewFromInt(1) },
		"zero spin cost":     func(s *Settings) { s.SpinWheelCost = 0 },
		"no prize tiers":     func(s *Settings) { s.SpinPrizes = nil },
		"zero tier weight":   func(s *Settings) { s.SpinPrizes[0].Weight = 0 },
		"negative tier":      func(s *Settings) { s.SpinPrizes[0].Amount = -1 },
		"negative referral":  func(s *Settings) { s.ReferralBonus = -1 },
		"negative welcome":   func(s *Settings) { s.WelcomeBonus = -1 },
		"zero min withdraw":  func(s *Settings) { s.MinWithdrawal = 0 },
		"negative threshold": func(s *Settings) { s.WithdrawalAutoThreshold = -1 },
	}
	for name, mutate := range mutations {
		cfg := validSettings()
		mutate(&cfg)
		if err := cfg.Validate(); err != ErrInvalidSettings {
			t.Fatalf("%s: expected ErrInvalidSettings, got %v", name, err)
		}
	}
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
}

func TestTotalSpinWeight(t *testing.T) {
	if got := validSettings().TotalSpinWeight(); got != 6 {
		t.Fatalf("unexpected total weight: %d", got)
	}
}

func TestLoadParsesRow(t *testing.T) {
	service := NewService(stubStore{
		getFn: func(context.Context) (store.SettingsRow, error) {
			return validRow(t), nil
		},
	}, fakeTxRunner{})
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := service.Current()
	if cfg.Version != 1 || !cfg.CoinTossPayout.Equal(decimal.RequireFromString("1.9")) {
		t.Fatalf("unexpected settings: %#v", cfg)
	}
	if len(cfg.SpinPrizes) != 2 {
		t.Fatalf("unexpected prizes: %#v", cfg.SpinPrizes)
	}
}

func TestLoadRejectsCorruptRow(t *testing.T) {
	row := validRow(t)
	row.CoinTossPayout = "not-a-number"
	service := NewService(stubStore{
		getFn: func(context.Context) (store.SettingsRow, error) { return row, nil },
	}, fakeTxRunner{})
	if err := service.Load(context.Background()); err != ErrInvalidSettings {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestUpdateSwapsSnapshot(t *testing.T) {
	var persisted store.SettingsRow
	service := NewService(stubStore{
		getFn: func(context.Context) (store.SettingsRow, error) {
			return validRow(t), nil
		},
		updateFn: func(_ context.Context, _ store.Execer, row store.SettingsRow) (int64, error) {
			persisted = row
			return 1, nil
		},
	}, fakeTxRunner{})
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := validSettings()
	next.SpinWheelCost = 700
	updated, err := service.Update(context.Background(), next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted.Version != 1 {
		t.Fatalf("update must run against the loaded version, got %d", persisted.Version)
	}
	if updated.Version != 2 || updated.SpinWheelCost != 700 {
		t.Fatalf("unexpected updated settings: %#v", updated)
	}
	if service.Current().SpinWheelCost != 700 {
		t.Fatalf("snapshot not swapped")
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	service := NewService(stubStore{
		getFn: func(context.Context) (store.SettingsRow, error) {
			return validRow(t), nil
		},
		updateFn: func(context.Context, store.Execer, store.SettingsRow) (int64, error) {
			return 0, nil
		},
	}, fakeTxRunner{})
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Update(context.Background(), validSettings()); err != ErrVersionConflict {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if service.Current().Version != 1 {
		t.Fatalf("snapshot must not change on conflict")
	}
}

func TestUpdateRejectsInvalid(t *testing.T) {
	service := NewService(stubStore{
		getFn: func(context.Context) (store.SettingsRow, error) {
			return validRow(t), nil
		},
		updateFn: func(context.Context, store.Execer, store.SettingsRow) (int64, error) {
			t.Fatalf("invalid settings must not be persisted")
			return 0, nil
		},
	}, fakeTxRunner{})
	if err := service.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := validSettings()
	bad.CoinTossMinBet = 0
	if _, err := service.Update(context.Background(), bad); err != ErrInvalidSettings {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}
