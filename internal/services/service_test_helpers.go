package services

import (
	"context"
	"database/sql"

	"tossearn/internal/settings"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	getByIDFn           func(ctx context.Context, userID string) (store.User, error)
	getForUpdateFn      func(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	updateBalanceFn     func(ctx context.Context, tx store.Execer, userID string, balance int64) error
	incrementCountersFn func(ctx context.Context, tx store.Execer, userID string, played, won int64) error
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error) {
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubUserStore) UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, userID, balance)
}

func (s stubUserStore) IncrementCounters(ctx context.Context, tx store.Execer, userID string, played, won int64) error {
	if s.incrementCountersFn == nil {
		return nil
	}
	return s.incrementCountersFn(ctx, tx, userID, played, won)
}

type stubLedgerStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error
}

func (s stubLedgerStore) Insert(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entry)
}

type stubGameStore struct {
	insertFn     func(ctx context.Context, tx store.Execer, round store.GameRoundInput) error
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error)
}

func (s stubGameStore) Insert(ctx context.Context, tx store.Execer, round store.GameRoundInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, round)
}

func (s stubGameStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubWithdrawalStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.WithdrawalRequestInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, requestID string) (store.WithdrawalRequest, error)
	resolveFn      func(ctx context.Context, tx store.Execer, requestID, status, adminID string) error
	listPendingFn  func(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error)
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error)
}

func (s stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, input store.WithdrawalRequestInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubWithdrawalStore) GetForUpdate(ctx context.Context, tx store.Getter, requestID string) (store.WithdrawalRequest, error) {
	return s.getForUpdateFn(ctx, tx, requestID)
}

func (s stubWithdrawalStore) Resolve(ctx context.Context, tx store.Execer, requestID, status, adminID string) error {
	if s.resolveFn == nil {
		return nil
	}
	return s.resolveFn(ctx, tx, requestID, status, adminID)
}

func (s stubWithdrawalStore) ListPending(ctx context.Context, limit, offset int) ([]store.WithdrawalRequest, error) {
	if s.listPendingFn == nil {
		return nil, nil
	}
	return s.listPendingFn(ctx, limit, offset)
}

func (s stubWithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.WithdrawalRequest, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubReferralStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.ReferralCreditInput) error
	listByReferrerFn func(ctx context.Context, referrerID string) ([]store.ReferralCredit, error)
}

func (s stubReferralStore) Create(ctx context.Context, tx store.Execer, input store.ReferralCreditInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubReferralStore) ListByReferrer(ctx context.Context, referrerID string) ([]store.ReferralCredit, error) {
	if s.listByReferrerFn == nil {
		return nil, nil
	}
	return s.listByReferrerFn(ctx, referrerID)
}

type stubReferralUserStore struct {
	getByReferralCodeFn func(ctx context.Context, code string) (store.User, error)
}

func (s stubReferralUserStore) GetByReferralCode(ctx context.Context, code string) (store.User, error) {
	return s.getByReferralCodeFn(ctx, code)
}

type stubDepositStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.DepositInput) error
}

func (s stubDepositStore) Create(ctx context.Context, tx store.Execer, input store.DepositInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}

type stubSettings struct {
	cfg settings.Settings
}

func (s stubSettings) Current() settings.Settings {
	return s.cfg
}

// fixedOutcome returns the same roll for every draw.
type fixedOutcome struct {
	roll int64
	err  error
}

func (f fixedOutcome) Draw(max int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.roll % max, nil
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
			{Amount: 1000, Weight: 3},
			{Amount: 5000, Weight: 2},
		},
		ReferralBonus:           10000,
		WelcomeBonus:            10000,
		MinWithdrawal:           10000,
		WithdrawalAutoThreshold: 20000,
	}
}

// ledgerFixture backs a real LedgerService with in-memory balances so
// service tests exercise the actual validation and snapshot logic.
type ledgerFixture struct {
	balances map[string]int64
	banned   map[string]bool
	entries  []store.LedgerEntryInput
	hub      *stubHub
}

func errNoRows() error {
	return sql.ErrNoRows
}

func newLedgerFixture(balances map[string]int64) *ledgerFixture {
	return &ledgerFixture{
		balances: balances,
		banned:   map[string]bool{},
		hub:      &stubHub{},
	}
}

func (f *ledgerFixture) service() *LedgerService {
	users := stubUserStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (store.User, error) {
			balance, ok := f.balances[userID]
			if !ok {
				return store.User{}, errNoRows()
			}
			return store.User{ID: userID, Balance: balance, IsBanned: f.banned[userID]}, nil
		},
		updateBalanceFn: func(_ context.Context, _ store.Execer, userID string, balance int64) error {
			f.balances[userID] = balance
			return nil
		},
	}
	ledger := stubLedgerStore{
		insertFn: func(_ context.Context, _ store.Execer, entry store.LedgerEntryInput) error {
			f.entries = append(f.entries, entry)
			return nil
		},
	}
	return NewLedgerService(fakeTxRunner{}, users, ledger, stubAuditStore{}, f.hub)
}
