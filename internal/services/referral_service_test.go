package services

import (
	"context"
	"testing"

	"tossearn/internal/store"

	"github.com/lib/pq"
)

func TestResolveReferrerUnknownCode(t *testing.T) {
	users := stubReferralUserStore{
		getByReferralCodeFn: func(_ context.Context, _ string) (store.User, error) {
			return store.User{}, errNoRows()
		},
	}
	service := NewReferralService(users, nil, stubReferralStore{}, stubSettings{cfg: testSettings()})
	if _, err := service.ResolveReferrer(context.Background(), "NOPE1234"); err != ErrInvalidReferralCode {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}
}

func TestApplyOnRegistrationCreditsBothSides(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"referee": 0, "referrer": 5000})
	var credit store.ReferralCreditInput
	referrals := stubReferralStore{
		createFn: func(_ context.Context, _ store.Execer, input store.ReferralCreditInput) error {
			credit = input
			return nil
		},
	}
	service := NewReferralService(stubReferralUserStore{}, fixture.service(), referrals, stubSettings{cfg: testSettings()})
	if err := service.ApplyOnRegistration(context.Background(), nil, "referee", "referrer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixture.balances["referee"] != 10000 {
		t.Fatalf("referee must get the welcome bonus, got %d", fixture.balances["referee"])
	}
	if fixture.balances["referrer"] != 15000 {
		t.Fatalf("referrer must get the referral bonus, got %d", fixture.balances["referrer"])
	}
	if len(fixture.entries) != 2 {
		t.Fatalf("expected 2 bonus entries, got %d", len(fixture.entries))
	}
	for _, entry := range fixture.entries {
		if entry.Kind != store.KindReferralBonus {
			t.Fatalf("unexpected kind: %s", entry.Kind)
		}
	}
	if credit.RefereeID != "referee" || credit.ReferrerID != "referrer" || credit.Amount != 10000 {
		t.Fatalf("unexpected credit record: %#v", credit)
	}
}

func TestApplyOnRegistrationZeroBonusesSkipLedger(t *testing.T) {
	cfg := testSettings()
	cfg.WelcomeBonus = 0
	cfg.ReferralBonus = 0
	fixture := newLedgerFixture(map[string]int64{"referee": 0, "referrer": 0})
	service := NewReferralService(stubReferralUserStore{}, fixture.service(), stubReferralStore{}, stubSettings{cfg: cfg})
	if err := service.ApplyOnRegistration(context.Background(), nil, "referee", "referrer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixture.entries) != 0 {
		t.Fatalf("zero bonuses must write no entries")
	}
}

func TestApplyOnRegistrationDuplicateReferee(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"referee": 0, "referrer": 0})
	referrals := stubReferralStore{
		createFn: func(_ context.Context, _ store.Execer, _ store.ReferralCreditInput) error {
			return &pq.Error{Code: "23505", Constraint: "referral_credits_referee_key"}
		},
	}
	service := NewReferralService(stubReferralUserStore{}, fixture.service(), referrals, stubSettings{cfg: testSettings()})
	err := service.ApplyOnRegistration(context.Background(), nil, "referee", "referrer")
	if err != ErrDuplicateReferral {
		t.Fatalf("expected ErrDuplicateReferral, got %v", err)
	}
}
