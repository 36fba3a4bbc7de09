package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"tossearn/internal/db"
	"tossearn/internal/money"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore interface {
	GetByID(ctx context.Context, userID string) (store.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance int64) error
	IncrementCounters(ctx context.Context, tx store.Execer, userID string, played, won int64) error
}

type LedgerStore interface {
	Insert(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// LedgerService is the single point of balance mutation. Every entry is
// applied under a row lock on the owning user, so mutation per account is
// strictly serialized while distinct accounts proceed independently.
type LedgerService struct {
	txRunner db.TxRunner
	users    UserStore
	ledger   LedgerStore
	audit    AuditStore
	hub      BalanceHub
}

func NewLedgerService(txRunner db.TxRunner, users UserStore, ledger LedgerStore, audit AuditStore, hub BalanceHub) *LedgerService {
	return &LedgerService{
		txRunner: txRunner,
		users:    users,
		ledger:   ledger,
		audit:    audit,
		hub:      hub,
	}
}

type ApplyInput struct {
	UserID        string
	Kind          string
	Amount        int64
	CorrelationID *string
	Description   string
}

type AppliedEntry struct {
	EntryID      string
	BalanceAfter int64
}

// ApplyEntry validates and applies one signed balance movement inside the
// caller's transaction: lock, validate, update the cached balance, append
// the immutable entry with its resulting-balance snapshot.
func (s *LedgerService) ApplyEntry(ctx context.Context, tx store.Tx, input ApplyInput) (AppliedEntry, error) {
	user, err := s.users.GetForUpdate(ctx, tx, input.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AppliedEntry{}, ErrAccountNotFound
		}
		return AppliedEntry{}, err
	}
	if user.IsBanned && producesNewDebit(input.Kind) {
		return AppliedEntry{}, ErrAccountBanned
	}
	newBalance := user.Balance + input.Amount
	if newBalance < 0 {
		if input.Kind == store.KindAdminAdjustment {
			// Exempt from the insufficient-funds check, but a correction
			// must still land on a non-negative balance.
			return AppliedEntry{}, ErrInvalidAmount
		}
		return AppliedEntry{}, ErrInsufficientFunds
	}
	if err := s.users.UpdateBalance(ctx, tx, input.UserID, newBalance); err != nil {
		return AppliedEntry{}, err
	}
	entryID := uuid.NewString()
	if err := s.ledger.Insert(ctx, tx, store.LedgerEntryInput{
		ID:            entryID,
		UserID:        input.UserID,
		Kind:          input.Kind,
		Amount:        input.Amount,
		BalanceAfter:  newBalance,
		CorrelationID: input.CorrelationID,
		Description:   input.Description,
	}); err != nil {
		return AppliedEntry{}, err
	}
	return AppliedEntry{EntryID: entryID, BalanceAfter: newBalance}, nil
}

// AdminAdjust applies a signed correction on behalf of an admin. Failures
// surface to the caller so the acting admin always sees the real outcome.
func (s *LedgerService) AdminAdjust(ctx context.Context, adminID, userID string, delta int64, note string) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		applied, err := s.ApplyEntry(ctx, tx, ApplyInput{
			UserID:      userID,
			Kind:        store.KindAdminAdjustment,
			Amount:      delta,
			Description: note,
		})
		if err != nil {
			return err
		}
		balanceAfter = applied.BalanceAfter
		data, _ := json.Marshal(map[string]any{
			"target_user_id": userID,
			"delta":          money.FormatMinor(delta),
			"entry_id":       applied.EntryID,
		})
		return s.audit.Log(ctx, tx, adminID, "adjust_balance", "ledger_entry", applied.EntryID, string(data))
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(balanceAfter)})
	return balanceAfter, nil
}

// Banned accounts keep read access and may still receive credits; only
// kinds that take new money out of the account are refused.
func producesNewDebit(kind string) bool {
	return kind == store.KindBetDebit || kind == store.KindWithdrawalHold
}
