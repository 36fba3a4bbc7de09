package handlers

import (
	"context"

	"tossearn/internal/services"
	"tossearn/internal/settings"
	"tossearn/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user store.User) error
	GetByID(ctx context.Context, userID string) (store.User, error)
	GetByUsername(ctx context.Context, username string) (store.User, error)
	SetBanned(ctx context.Context, tx store.Execer, userID string, banned bool) (int64, error)
	ListAll(ctx context.Context, limit, offset int) ([]store.User, error)
	Leaderboard(ctx context.Context, limit int) ([]store.User, error)
	Count(ctx context.Context) (int64, error)
	HasAnyUser(ctx context.Context, tx store.Getter) (bool, error)
}

type LedgerStore interface {
	ListByUser(ctx context.Context, userID string, kinds []string, limit, offset int) ([]store.LedgerEntry, error)
	Reconcile(ctx context.Context) ([]store.ReconciliationRow, error)
	UnpairedBetCorrelations(ctx context.Context) ([]string, error)
}

type GameStore interface {
	Count(ctx context.Context) (int64, error)
}

type WithdrawalStore interface {
	CountPending(ctx context.Context) (int64, error)
	SumSettled(ctx context.Context) (int64, error)
}

type DepositStore interface {
	SumAll(ctx context.Context) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LedgerService interface {
	ApplyEntry(ctx context.Context, tx store.Tx, input services.ApplyInput) (services.AppliedEntry, error)
	AdminAdjust(ctx context.Context, adminID, userID string, delta int64, note string) (int64, error)
}

type GameService interface {
	PlayCoinToss(ctx context.Context, userID string, bet int64, choice string) (services.TossResult, error)
	PlaySpinWheel(ctx context.Context, userID string) (services.SpinResult, error)
	History(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error)
}

type WithdrawalService interface {
	Create(ctx context.Context, userID string, amount int64, dest services.WithdrawalDestination) (services.CreatedWithdrawal, error)
	Approve(ctx context.Context, adminID, requestID string) error
	Reject(ctx context.Context, adminID, requestID string) error
	ListPending(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error)
	HistoryByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error)
}

type ReferralService interface {
	ResolveReferrer(ctx context.Context, code string) (store.User, error)
	ApplyOnRegistration(ctx context.Context, tx store.Tx, refereeID, referrerID string) error
	ListByReferrer(ctx context.Context, referrerID string) ([]store.ReferralCredit, error)
}

type DepositService interface {
	Confirm(ctx context.Context, paymentReference, userID string, amount int64) (int64, error)
}

type SettingsService interface {
	Current() settings.Settings
	Update(ctx context.Context, next settings.Settings) (settings.Settings, error)
}
