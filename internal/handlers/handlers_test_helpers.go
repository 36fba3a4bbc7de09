package handlers

import (
	"context"
	"time"

	"tossearn/internal/config"
	"tossearn/internal/services"
	"tossearn/internal/settings"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, user store.User) error
	getByIDFn       func(ctx context.Context, userID string) (store.User, error)
	getByUsernameFn func(ctx context.Context, username string) (store.User, error)
	setBannedFn     func(ctx context.Context, tx store.Execer, userID string, banned bool) (int64, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]store.User, error)
	leaderboardFn   func(ctx context.Context, limit int) ([]store.User, error)
	countFn         func(ctx context.Context) (int64, error)
	hasAnyUserFn    func(ctx context.Context, tx store.Getter) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user store.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (store.User, error) {
	if s.getByUsernameFn == nil {
		return store.User{Username: username}, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) SetBanned(ctx context.Context, tx store.Execer, userID string, banned bool) (int64, error) {
	if s.setBannedFn == nil {
		return 1, nil
	}
	return s.setBannedFn(ctx, tx, userID, banned)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]store.User, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

func (s stubUserStore) Leaderboard(ctx context.Context, limit int) ([]store.User, error) {
	if s.leaderboardFn == nil {
		return nil, nil
	}
	return s.leaderboardFn(ctx, limit)
}

func (s stubUserStore) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

func (s stubUserStore) HasAnyUser(ctx context.Context, tx store.Getter) (bool, error) {
	if s.hasAnyUserFn == nil {
		return true, nil
	}
	return s.hasAnyUserFn(ctx, tx)
}

type stubLedgerStore struct {
	listByUserFn  func(ctx context.Context, userID string, kinds []string, limit, offset int) ([]store.LedgerEntry, error)
	reconcileFn   func(ctx context.Context) ([]store.ReconciliationRow, error)
	unpairedBetFn func(ctx context.Context) ([]string, error)
}

func (s stubLedgerStore) ListByUser(ctx context.Context, userID string, kinds []string, limit, offset int) ([]store.LedgerEntry, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, kinds, limit, offset)
}

func (s stubLedgerStore) Reconcile(ctx context.Context) ([]store.ReconciliationRow, error) {
	if s.reconcileFn == nil {
		return nil, nil
	}
	return s.reconcileFn(ctx)
}

func (s stubLedgerStore) UnpairedBetCorrelations(ctx context.Context) ([]string, error) {
	if s.unpairedBetFn == nil {
		return nil, nil
	}
	return s.unpairedBetFn(ctx)
}

type stubGameStore struct {
	countFn func(ctx context.Context) (int64, error)
}

func (s stubGameStore) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

type stubWithdrawalStore struct {
	countPendingFn func(ctx context.Context) (int64, error)
	sumSettledFn   func(ctx context.Context) (int64, error)
}

func (s stubWithdrawalStore) CountPending(ctx context.Context) (int64, error) {
	if s.countPendingFn == nil {
		return 0, nil
	}
	return s.countPendingFn(ctx)
}

func (s stubWithdrawalStore) SumSettled(ctx context.Context) (int64, error) {
	if s.sumSettledFn == nil {
		return 0, nil
	}
	return s.sumSettledFn(ctx)
}

type stubDepositStore struct {
	sumAllFn func(ctx context.Context) (int64, error)
}

func (s stubDepositStore) SumAll(ctx context.Context) (int64, error) {
	if s.sumAllFn == nil {
		return 0, nil
	}
	return s.sumAllFn(ctx)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubLedgerService struct {
	applyEntryFn  func(ctx context.Context, tx store.Tx, input services.ApplyInput) (services.AppliedEntry, error)
	adminAdjustFn func(ctx context.Context, adminID, userID string, delta int64, note string) (int64, error)
}

func (s stubLedgerService) ApplyEntry(ctx context.Context, tx store.Tx, input services.ApplyInput) (services.AppliedEntry, error) {
	if s.applyEntryFn == nil {
		return services.AppliedEntry{}, nil
	}
	return s.applyEntryFn(ctx, tx, input)
}

func (s stubLedgerService) AdminAdjust(ctx context.Context, adminID, userID string, delta int64, note string) (int64, error) {
	if s.adminAdjustFn == nil {
		return 0, nil
	}
	return s.adminAdjustFn(ctx, adminID, userID, delta, note)
}

type stubGameService struct {
	playCoinTossFn  func(ctx context.Context, userID string, bet int64, choice string) (services.TossResult, error)
	playSpinWheelFn func(ctx context.Context, userID string) (services.SpinResult, error)
	historyFn       func(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error)
}

func (s stubGameService) PlayCoinToss(ctx context.Context, userID string, bet int64, choice string) (services.TossResult, error) {
	if s.playCoinTossFn == nil {
		return services.TossResult{}, nil
	}
	return s.playCoinTossFn(ctx, userID, bet, choice)
}

func (s stubGameService) PlaySpinWheel(ctx context.Context, userID string) (services.SpinResult, error) {
	if s.playSpinWheelFn == nil {
		return services.SpinResult{}, nil
	}
	return s.playSpinWheelFn(ctx, userID)
}

func (s stubGameService) History(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, limit, offset)
}

type stubWithdrawalService struct {
	createFn        func(ctx context.Context, userID string, amount int64, dest services.WithdrawalDestination) (services.CreatedWithdrawal, error)
	approveFn       func(ctx context.Context, adminID, requestID string) error
	rejectFn        func(ctx context.Context, adminID, requestID string) error
	listPendingFn   func(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error)
	historyByUserFn func(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error)
}

func (s stubWithdrawalService) Create(ctx context.Context, userID string, amount int64, dest services.WithdrawalDestination) (services.CreatedWithdrawal, error) {
	if s.createFn == nil {
		return services.CreatedWithdrawal{}, nil
	}
	return s.createFn(ctx, userID, amount, dest)
}

func (s stubWithdrawalService) Approve(ctx context.Context, adminID, requestID string) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(ctx, adminID, requestID)
}

func (s stubWithdrawalService) Reject(ctx context.Context, adminID, requestID string) error {
	if s.rejectFn == nil {
		return nil
	}
	return s.rejectFn(ctx, adminID, requestID)
}

func (s stubWithdrawalService) ListPending(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error) {
	if s.listPendingFn == nil {
		return nil, nil
	}
	return s.listPendingFn(ctx, limit, offset)
}

func (s stubWithdrawalService) HistoryByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error) {
	if s.historyByUserFn == nil {
		return nil, nil
	}
	return s.historyByUserFn(ctx, userID, limit, offset)
}

type stubReferralService struct {
	resolveReferrerFn     func(ctx context.Context, code string) (store.User, error)
	applyOnRegistrationFn func(ctx context.Context, tx store.Tx, refereeID, referrerID string) error
	listByReferrerFn      func(ctx context.Context, referrerID string) ([]store.ReferralCredit, error)
}

func (s stubReferralService) ResolveReferrer(ctx context.Context, code string) (store.User, error) {
	if s.resolveReferrerFn == nil {
		return store.User{}, nil
	}
	return s.resolveReferrerFn(ctx, code)
}

func (s stubReferralService) ApplyOnRegistration(ctx context.Context, tx store.Tx, refereeID, referrerID string) error {
	if s.applyOnRegistrationFn == nil {
		return nil
	}
	return s.applyOnRegistrationFn(ctx, tx, refereeID, referrerID)
}

func (s stubReferralService) ListByReferrer(ctx context.Context, referrerID string) ([]store.ReferralCredit, error) {
	if s.listByReferrerFn == nil {
		return nil, nil
	}
	return s.listByReferrerFn(ctx, referrerID)
}

type stubDepositService struct {
	confirmFn func(ctx context.Context, paymentReference, userID string, amount int64) (int64, error)
}

func (s stubDepositService) Confirm(ctx context.Context, paymentReference, userID string, amount int64) (int64, error) {
	if s.confirmFn == nil {
		return 0, nil
	}
	return s.confirmFn(ctx, paymentReference, userID, amount)
}

type stubSettingsService struct {
	currentFn func() settings.Settings
	updateFn  func(ctx context.Context, next settings.Settings) (settings.Settings, error)
}

func (s stubSettingsService) Current() settings.Settings {
	if s.currentFn == nil {
		return testSettings()
	}
	return s.currentFn()
}

func (s stubSettingsService) Update(ctx context.Context, next settings.Settings) (settings.Settings, error) {
	if s.updateFn == nil {
		return next, nil
	}
	return s.updateFn(ctx, next)
}

func testSettings() settings.Settings {
	return settings.Settings{
		Version:        1,
		CoinTossMinBet: 100,
		CoinTossMaxBet: 100000,
		CoinTossPayout: decimal.RequireFromString("1.9"),
		SpinWheelCost:  500,
		SpinPrizes: []settings.PrizeTier{
			{Amount: 100, Weight: 5},
			{Amount: 1000, Weight: 1},
		},
		ReferralBonus:           10000,
		WelcomeBonus:            10000,
		MinWithdrawal:           10000,
		WithdrawalAutoThreshold: 20000,
	}
}

type handlerStubs struct {
	txRunner    fakeTxRunner
	users       stubUserStore
	ledger      stubLedgerStore
	games       stubGameStore
	withdrawals stubWithdrawalStore
	deposits    stubDepositStore
	audit       stubAuditStore
	ledgerSvc   stubLedgerService
	gameSvc     stubGameService
	withdrawSvc stubWithdrawalService
	referralSvc stubReferralService
	depositSvc  stubDepositService
	settingsSvc stubSettingsService
}

func newTestHandler(stubs handlerStubs) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		WebhookSecret:  "hook-secret",
	}
	return New(stubs.txRunner, cfg, stubs.users, stubs.ledger, stubs.games, stubs.withdrawals,
		stubs.deposits, stubs.audit, stubs.ledgerSvc, stubs.gameSvc, stubs.withdrawSvc,
		stubs.referralSvc, stubs.depositSvc, stubs.settingsSvc, websocket.NewHub())
}
