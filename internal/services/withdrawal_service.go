package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tossearn/internal/db"
	"tossearn/internal/money"
	"tossearn/internal/store"
	"tossearn/internal/validator"
	"tossearn/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.WithdrawalRequestInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, requestID string) (store.WithdrawalRequest, error)
	Resolve(ctx context.Context, tx store.Execer, requestID, status, adminID string) error
	ListPending(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error)
}

// WithdrawalService files and resolves withdrawal requests. The hold debit
// lands in the same transaction that creates the request, so funds leave
// the spendable balance the instant the request exists and concurrent
// requests cannot withdraw the same money twice.
type WithdrawalService struct {
	txRunner    db.TxRunner
	ledger      LedgerApplier
	withdrawals WithdrawalStore
	settings    SettingsProvider
	audit       AuditStore
	hub         BalanceHub
}

func NewWithdrawalService(txRunner db.TxRunner, ledger LedgerApplier, withdrawals WithdrawalStore, settingsProvider SettingsProvider, audit AuditStore, hub BalanceHub) *WithdrawalService {
	return &WithdrawalService{
		txRunner:    txRunner,
		ledger:      ledger,
		withdrawals: withdrawals,
		settings:    settingsProvider,
		audit:       audit,
		hub:         hub,
	}
}

type WithdrawalDestination struct {
	Method        string
	UPIID         string
	AccountNumber string
	IFSCCode      string
}

type CreatedWithdrawal struct {
	RequestID string
	Status    string
	Balance   int64
}

func (s *WithdrawalService) Create(ctx context.Context, userID string, amount int64, dest WithdrawalDestination) (CreatedWithdrawal, error) {
	cfg := s.settings.Current()
	if amount < cfg.MinWithdrawal {
		return CreatedWithdrawal{}, fmt.Errorf("%w: minimum withdrawal is %s",
			ErrInvalidAmount, money.FormatMinor(cfg.MinWithdrawal))
	}
	input := store.WithdrawalRequestInput{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		Method: dest.Method,
	}
	switch dest.Method {
	case store.MethodUPI:
		if err := validator.ValidateUPI(dest.UPIID); err != nil {
			return CreatedWithdrawal{}, ErrInvalidWithdrawalMethod
		}
		input.UPIID = &dest.UPIID
	case store.MethodBank:
		if err := validator.ValidateAccountNumber(dest.AccountNumber); err != nil {
			return CreatedWithdrawal{}, ErrInvalidWithdrawalMethod
		}
		if err := validator.ValidateIFSC(dest.IFSCCode); err != nil {
			return CreatedWithdrawal{}, ErrInvalidWithdrawalMethod
		}
		input.AccountNumber = &dest.AccountNumber
		input.IFSCCode = &dest.IFSCCode
	default:
		return CreatedWithdrawal{}, ErrInvalidWithdrawalMethod
	}
	input.Status = store.WithdrawalPending
	if amount < cfg.WithdrawalAutoThreshold {
		// Below the risk threshold the hold is already the final debit.
		input.Status = store.WithdrawalAutoSettled
	}
	correlationID := uuid.NewString()
	input.HoldCorrelationID = correlationID
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		applied, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        userID,
			Kind:          store.KindWithdrawalHold,
			Amount:        -amount,
			CorrelationID: &correlationID,
			Description:   "Withdrawal hold",
		})
		if err != nil {
			return err
		}
		balanceAfter = applied.BalanceAfter
		return s.withdrawals.Create(ctx, tx, input)
	})
	if err != nil {
		return CreatedWithdrawal{}, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(balanceAfter)})
	return CreatedWithdrawal{RequestID: input.ID, Status: input.Status, Balance: balanceAfter}, nil
}

// Approve finalizes a pending request. The hold already represents the
// final debit, so approval writes no ledger entry.
func (s *WithdrawalService) Approve(ctx context.Context, adminID, requestID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		request, err := s.lockPending(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := s.withdrawals.Resolve(ctx, tx, requestID, store.WithdrawalApproved, adminID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id": request.UserID,
			"amount":  money.FormatMinor(request.Amount),
		})
		return s.audit.Log(ctx, tx, adminID, "approve_withdrawal", "withdrawal_request", requestID, string(data))
	})
}

// Reject refunds the hold in full, correlated to the original hold entry.
func (s *WithdrawalService) Reject(ctx context.Context, adminID, requestID string) error {
	var userID string
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		request, err := s.lockPending(ctx, tx, requestID)
		if err != nil {
			return err
		}
		userID = request.UserID
		applied, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        request.UserID,
			Kind:          store.KindWithdrawalRefund,
			Amount:        request.Amount,
			CorrelationID: &request.HoldCorrelationID,
			Description:   "Withdrawal rejected, hold refunded",
		})
		if err != nil {
			return err
		}
		balanceAfter = applied.BalanceAfter
		if err := s.withdrawals.Resolve(ctx, tx, requestID, store.WithdrawalRejected, adminID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id": request.UserID,
			"amount":  money.FormatMinor(request.Amount),
		})
		return s.audit.Log(ctx, tx, adminID, "reject_withdrawal", "withdrawal_request", requestID, string(data))
	})
	if err != nil {
		return err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(balanceAfter)})
	return nil
}

func (s *WithdrawalService) lockPending(ctx context.Context, tx store.Tx, requestID string) (store.WithdrawalRequest, error) {
	request, err := s.withdrawals.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.WithdrawalRequest{}, ErrInvalidWithdrawalState
		}
		return store.WithdrawalRequest{}, err
	}
	if request.Status != store.WithdrawalPending {
		return store.WithdrawalRequest{}, ErrInvalidWithdrawalState
	}
	return request, nil
}

func (s *WithdrawalService) ListPending(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error) {
	return s.withdrawals.ListPending(ctx, limit, offset)
}

func (s *WithdrawalService) HistoryByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error) {
	return s.withdrawals.ListByUser(ctx, userID, limit, offset)
}
