package services

import (
	"context"

	"tossearn/internal/db"
	"tossearn/internal/money"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type DepositStore interface {
	Create(ctx context.Context, tx store.Execer, input store.DepositInput) error
}

// DepositService credits confirmed payments. Confirm is idempotent per
// external payment reference so duplicate webhook deliveries cannot credit
// an account twice.
type DepositService struct {
	txRunner db.TxRunner
	ledger   LedgerApplier
	deposits DepositStore
	hub      BalanceHub
}

func NewDepositService(txRunner db.TxRunner, ledger LedgerApplier, deposits DepositStore, hub BalanceHub) *DepositService {
	return &DepositService{
		txRunner: txRunner,
		ledger:   ledger,
		deposits: deposits,
		hub:      hub,
	}
}

func (s *DepositService) Confirm(ctx context.Context, paymentReference, userID string, amount int64) (int64, error) {
	if paymentReference == "" || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.deposits.Create(ctx, tx, store.DepositInput{
			ID:               uuid.NewString(),
			UserID:           userID,
			PaymentReference: paymentReference,
			Amount:           amount,
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrDuplicateDeposit
			}
			if db.IsForeignKeyViolation(err) {
				return ErrAccountNotFound
			}
			return err
		}
		applied, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        userID,
			Kind:          store.KindDeposit,
			Amount:        amount,
			CorrelationID: &paymentReference,
			Description:   "Deposit via payment gateway",
		})
		if err != nil {
			return err
		}
		balanceAfter = applied.BalanceAfter
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(balanceAfter)})
	return balanceAfter, nil
}
