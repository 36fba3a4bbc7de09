package services

import (
	"context"
	"database/sql"
	"errors"

	"tossearn/internal/db"
	"tossearn/internal/store"

	"github.com/google/uuid"
)

type ReferralStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ReferralCreditInput) error
	ListByReferrer(ctx context.Context, referrerID string) ([]store.ReferralCredit, error)
}

type ReferralUserStore interface {
	GetByReferralCode(ctx context.Context, code string) (store.User, error)
}

// ReferralService credits the welcome and referral bonuses at most once
// per referee. The unique index on referee_id makes re-invocation fail
// fast instead of double-crediting.
type ReferralService struct {
	users     ReferralUserStore
	ledger    LedgerApplier
	referrals ReferralStore
	settings  SettingsProvider
}

func NewReferralService(users ReferralUserStore, ledger LedgerApplier, referrals ReferralStore, settingsProvider SettingsProvider) *ReferralService {
	return &ReferralService{
		users:     users,
		ledger:    ledger,
		referrals: referrals,
		settings:  settingsProvider,
	}
}

// ResolveReferrer maps a referral code to the referring user.
func (s *ReferralService) ResolveReferrer(ctx context.Context, code string) (store.User, error) {
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrInvalidReferralCode
		}
		return store.User{}, err
	}
	return referrer, nil
}

// ApplyOnRegistration runs inside the registration transaction: welcome
// bonus to the referee, referral bonus to the referrer, one credit record.
func (s *ReferralService) ApplyOnRegistration(ctx context.Context, tx store.Tx, refereeID, referrerID string) error {
	cfg := s.settings.Current()
	if cfg.WelcomeBonus > 0 {
		if _, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:      refereeID,
			Kind:        store.KindReferralBonus,
			Amount:      cfg.WelcomeBonus,
			Description: "Welcome bonus",
		}); err != nil {
			return err
		}
	}
	if cfg.ReferralBonus > 0 {
		if _, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:      referrerID,
			Kind:        store.KindReferralBonus,
			Amount:      cfg.ReferralBonus,
			Description: "Referral bonus",
		}); err != nil {
			return err
		}
	}
	err := s.referrals.Create(ctx, tx, store.ReferralCreditInput{
		ID:         uuid.NewString(),
		ReferrerID: referrerID,
		RefereeID:  refereeID,
		Amount:     cfg.ReferralBonus,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateReferral
		}
		return err
	}
	return nil
}

func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID string) ([]store.ReferralCredit, error) {
	return s.referrals.ListByReferrer(ctx, referrerID)
}
