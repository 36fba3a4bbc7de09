package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestLedgerStoreInsert(t *testing.T) {
	ctx := context.Background()
	correlation := "corr-1"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO ledger_entries") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[2] != KindBetDebit || args[3] != int64(-500) || args[4] != int64(4500) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	err := store.Insert(ctx, execer, LedgerEntryInput{
		ID: "entry-1", UserID: "user-1", Kind: KindBetDebit,
		Amount: -500, BalanceAfter: 4500, CorrelationID: &correlation,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreSumByUser(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM ledger_entries") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 4500
			return nil
		},
	})
	sum, err := store.SumByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 4500 {
		t.Fatalf("unexpected sum: %d", sum)
	}
}

func TestLedgerStoreListByUserFiltersKinds(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "kind = ANY($2)") {
				t.Fatalf("expected kind filter in query: %s", query)
			}
			if len(args) != 4 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", []string{KindDeposit, KindReferralBonus}, 20, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreListByUserWithoutKinds(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if strings.Contains(query, "ANY") {
				t.Fatalf("unexpected kind filter: %s", query)
			}
			if len(args) != 3 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", nil, 20, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLedgerStoreReconcile(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "LEFT JOIN ledger_entries") {
				t.Fatalf("unexpected query: %s", query)
			}
			rows := dest.(*[]ReconciliationRow)
			*rows = append(*rows, ReconciliationRow{UserID: "user-1", LedgerSum: 100, StoredBalance: 100})
			return nil
		},
	})
	rows, err := store.Reconcile(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Difference != 0 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
