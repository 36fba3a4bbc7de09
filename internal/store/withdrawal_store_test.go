package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestWithdrawalStoreCreatePending(t *testing.T) {
	ctx := context.Background()
	upi := "alice@upi"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO withdrawal_requests") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[7] != WithdrawalPending {
				t.Fatalf("unexpected status: %v", args[7])
			}
			if args[9] != nil {
				t.Fatalf("pending request must not carry resolved_at, got %v", args[9])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewWithdrawalStore(stubDB{})
	err := store.Create(ctx, execer, WithdrawalRequestInput{
		ID: "w-1", UserID: "user-1", Amount: 5000, Method: MethodUPI,
		UPIID: &upi, Status: WithdrawalPending, HoldCorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithdrawalStoreCreateAutoSettledStampsResolvedAt(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if args[9] == nil {
				t.Fatalf("auto-settled request must carry resolved_at")
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewWithdrawalStore(stubDB{})
	err := store.Create(ctx, execer, WithdrawalRequestInput{
		ID: "w-1", UserID: "user-1", Amount: 100, Method: MethodUPI,
		Status: WithdrawalAutoSettled, HoldCorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithdrawalStoreGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	store := NewWithdrawalStore(stubDB{})
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock in query: %s", query)
			}
			row := dest.(*WithdrawalRequest)
			row.ID = args[0].(string)
			row.Status = WithdrawalPending
			return nil
		},
	}
	request, err := store.GetForUpdate(ctx, getter, "w-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if request.ID != "w-1" || request.Status != WithdrawalPending {
		t.Fatalf("unexpected request: %#v", request)
	}
}

func TestWithdrawalStoreResolve(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET status") || !strings.Contains(query, "resolved_at = NOW()") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != WithdrawalApproved || args[1] != "admin-1" || args[2] != "w-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewWithdrawalStore(stubDB{})
	if err := store.Resolve(ctx, execer, "w-1", WithdrawalApproved, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithdrawalStoreSumSettled(t *testing.T) {
	ctx := context.Background()
	store := NewWithdrawalStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "'auto_settled', 'approved'") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 12345
			return nil
		},
	})
	sum, err := store.SumSettled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 12345 {
		t.Fatalf("unexpected sum: %d", sum)
	}
}
