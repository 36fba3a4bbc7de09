package services

import (
	"context"
	"testing"

	"tossearn/internal/store"
)

func TestApplyEntryInsufficientFunds(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"user-1": 400})
	service := fixture.service()
	_, err := service.ApplyEntry(context.Background(), nil, ApplyInput{
		UserID: "user-1", Kind: store.KindBetDebit, Amount: -500,
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(fixture.entries) != 0 {
		t.Fatalf("no entry must be written on rejection")
	}
	if fixture.balances["user-1"] != 400 {
		t.Fatalf("balance must be untouched, got %d", fixture.balances["user-1"])
	}
}

func TestApplyEntryAccountNotFound(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{})
	service := fixture.service()
	_, err := service.ApplyEntry(context.Background(), nil, ApplyInput{
		UserID: "missing", Kind: store.KindDeposit, Amount: 100,
	})
	if err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestApplyEntryBannedRefusesNewDebits(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"user-1": 10000})
	fixture.banned["user-1"] = true
	service := fixture.service()

	for _, kind := range []string{store.KindBetDebit, store.KindWithdrawalHold} {
		_, err := service.ApplyEntry(context.Background(), nil, ApplyInput{
			UserID: "user-1", Kind: kind, Amount: -100,
		})
		if err != ErrAccountBanned {
			t.Fatalf("kind %s: expected ErrAccountBanned, got %v", kind, err)
		}
	}

	// Credits and refunds still land on banned accounts.
	applied, err := service.ApplyEntry(context.Background(), nil, ApplyInput{
		UserID: "user-1", Kind: store.KindWithdrawalRefund, Amount: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.BalanceAfter != 10500 {
		t.Fatalf("unexpected balance: %d", applied.BalanceAfter)
	}
}

func TestApplyEntryWritesBalanceSnapshot(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"user-1": 1000})
	service := fixture.service()
	applied, err := service.ApplyEntry(context.Background(), nil, ApplyInput{
		UserID: "user-1", Kind: store.KindDeposit, Amount: 250, Description: "Deposit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.BalanceAfter != 1250 {
		t.Fatalf("unexpected balance: %d", applied.BalanceAfter)
	}
	if len(fixture.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(fixture.entries))
	}
	entry := fixture.entries[0]
	if entry.BalanceAfter != 1250 || entry.Amount != 250 || entry.Kind != store.KindDeposit {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if fixture.balances["user-1"] != 1250 {
		t.Fatalf("stored balance not updated: %d", fixture.balances["user-1"])
	}
}

func TestAdminAdjustBypassesInsufficientFundsSentinel(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"user-1": 1000})
	service := fixture.service()

	// A negative correction larger than the balance is still refused, but
	// with the amount sentinel rather than insufficient funds.
	_, err := service.AdminAdjust(context.Background(), "admin-1", "user-1", -2000, "fraud clawback")
	if err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	balance, err := service.AdminAdjust(context.Background(), "admin-1", "user-1", -700, "fraud clawback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 300 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if len(fixture.hub.calls) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(fixture.hub.calls))
	}
}

func TestAdminAdjustRejectsZeroDelta(t *testing.T) {
	fixture := newLedgerFixture(map[string]int64{"user-1": 1000})
	service := fixture.service()
	if _, err := service.AdminAdjust(context.Background(), "admin-1", "user-1", 0, "noop"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAdminAdjustAuditsAction(t *testing.T) {
	logged := false
	fixture := newLedgerFixture(map[string]int64{"user-1": 1000})
	users := stubUserStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (store.User, error) {
			return store.User{ID: userID, Balance: fixture.balances[userID]}, nil
		},
		updateBalanceFn: func(_ context.Context, _ store.Execer, userID string, balance int64) error {
			fixture.balances[userID] = balance
			return nil
		},
	}
	audit := stubAuditStore{
		logFn: func(_ context.Context, _ store.Execer, actorID, action, entityType, _, _ string) error {
			if actorID != "admin-1" || action != "adjust_balance" || entityType != "ledger_entry" {
				t.Fatalf("unexpected audit row: %s %s %s", actorID, action, entityType)
			}
			logged = true
			return nil
		},
	}
	service := NewLedgerService(fakeTxRunner{}, users, stubLedgerStore{}, audit, &stubHub{})
	if _, err := service.AdminAdjust(context.Background(), "admin-1", "user-1", 500, "goodwill"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logged {
		t.Fatalf("expected audit log")
	}
}
