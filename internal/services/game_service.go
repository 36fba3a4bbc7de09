package services

import (
	"context"
	"fmt"

	"tossearn/internal/db"
	"tossearn/internal/money"
	"tossearn/internal/settings"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	SideHeads = "heads"
	SideTails = "tails"
)

type GameStore interface {
	Insert(ctx context.Context, tx store.Execer, round store.GameRoundInput) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error)
}

type LedgerApplier interface {
	ApplyEntry(ctx context.Context, tx store.Tx, input ApplyInput) (AppliedEntry, error)
}

type SettingsProvider interface {
	Current() settings.Settings
}

// GameService settles wagers. A settlement is one transaction: the debit
// is applied before any randomness is drawn, and the paired credit shares
// the debit's correlation id, so a round can never half-apply.
type GameService struct {
	txRunner db.TxRunner
	users    UserStore
	ledger   LedgerApplier
	rounds   GameStore
	settings SettingsProvider
	rng      OutcomeSource
	hub      BalanceHub
}

func NewGameService(txRunner db.TxRunner, users UserStore, ledger LedgerApplier, rounds GameStore, settingsProvider SettingsProvider, rng OutcomeSource, hub BalanceHub) *GameService {
	return &GameService{
		txRunner: txRunner,
		users:    users,
		ledger:   ledger,
		rounds:   rounds,
		settings: settingsProvider,
		rng:      rng,
		hub:      hub,
	}
}

type TossResult struct {
	Outcome   string
	Won       bool
	WinAmount int64
	Balance   int64
}

func (s *GameService) PlayCoinToss(ctx context.Context, userID string, bet int64, choice string) (TossResult, error) {
	if choice != SideHeads && choice != SideTails {
		return TossResult{}, ErrInvalidChoice
	}
	cfg := s.settings.Current()
	if bet < cfg.CoinTossMinBet || bet > cfg.CoinTossMaxBet {
		return TossResult{}, fmt.Errorf("%w: bet must be between %s and %s",
			ErrInvalidWagerRange, money.FormatMinor(cfg.CoinTossMinBet), money.FormatMinor(cfg.CoinTossMaxBet))
	}
	var result TossResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		correlationID := uuid.NewString()
		applied, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        userID,
			Kind:          store.KindBetDebit,
			Amount:        -bet,
			CorrelationID: &correlationID,
			Description:   "Coin toss wager",
		})
		if err != nil {
			return err
		}
		// The draw happens only after the wager debit succeeded, and is
		// independent of the chosen side.
		roll, err := s.rng.Draw(2)
		if err != nil {
			return err
		}
		outcome := SideHeads
		if roll == 1 {
			outcome = SideTails
		}
		won := outcome == choice
		result = TossResult{Outcome: outcome, Balance: applied.BalanceAfter}
		if won {
			winAmount := decimal.NewFromInt(bet).Mul(cfg.CoinTossPayout).RoundBank(0).IntPart()
			credited, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
				UserID:        userID,
				Kind:          store.KindBetCredit,
				Amount:        winAmount,
				CorrelationID: &correlationID,
				Description:   "Coin toss win",
			})
			if err != nil {
				return err
			}
			result.Won = true
			result.WinAmount = winAmount
			result.Balance = credited.BalanceAfter
		}
		if err := s.rounds.Insert(ctx, tx, store.GameRoundInput{
			ID:            uuid.NewString(),
			UserID:        userID,
			Game:          store.GameCoinToss,
			BetAmount:     bet,
			Choice:        &choice,
			Outcome:       outcome,
			Payout:        result.WinAmount,
			Won:           won,
			CorrelationID: correlationID,
		}); err != nil {
			return err
		}
		wonCount := int64(0)
		if won {
			wonCount = 1
		}
		return s.users.IncrementCounters(ctx, tx, userID, 1, wonCount)
	})
	if err != nil {
		return TossResult{}, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(result.Balance)})
	return result, nil
}

type SpinResult struct {
	Prize   int64
	Balance int64
}

func (s *GameService) PlaySpinWheel(ctx context.Context, userID string) (SpinResult, error) {
	cfg := s.settings.Current()
	var result SpinResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		correlationID := uuid.NewString()
		if _, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        userID,
			Kind:          store.KindBetDebit,
			Amount:        -cfg.SpinWheelCost,
			CorrelationID: &correlationID,
			Description:   "Spin wheel cost",
		}); err != nil {
			return err
		}
		prize, err := s.drawPrize(cfg)
		if err != nil {
			return err
		}
		credited, err := s.ledger.ApplyEntry(ctx, tx, ApplyInput{
			UserID:        userID,
			Kind:          store.KindBetCredit,
			Amount:        prize,
			CorrelationID: &correlationID,
			Description:   "Spin wheel prize",
		})
		if err != nil {
			return err
		}
		result = SpinResult{Prize: prize, Balance: credited.BalanceAfter}
		if err := s.rounds.Insert(ctx, tx, store.GameRoundInput{
			ID:            uuid.NewString(),
			UserID:        userID,
			Game:          store.GameSpinWheel,
			BetAmount:     cfg.SpinWheelCost,
			Outcome:       money.FormatMinor(prize),
			Payout:        prize,
			Won:           true,
			CorrelationID: correlationID,
		}); err != nil {
			return err
		}
		return s.users.IncrementCounters(ctx, tx, userID, 1, 1)
	})
	if err != nil {
		return SpinResult{}, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{Balance: money.Rupees(result.Balance)})
	return result, nil
}

// drawPrize walks the configured tiers with a uniform draw over the total
// weight, so tier probability is weight divided by total weight.
func (s *GameService) drawPrize(cfg settings.Settings) (int64, error) {
	total := cfg.TotalSpinWeight()
	roll, err := s.rng.Draw(total)
	if err != nil {
		return 0, err
	}
	for _, tier := range cfg.SpinPrizes {
		if roll < tier.Weight {
			return tier.Amount, nil
		}
		roll -= tier.Weight
	}
	return cfg.SpinPrizes[len(cfg.SpinPrizes)-1].Amount, nil
}

func (s *GameService) History(ctx context.Context, userID string, limit, offset int) ([]store.GameRound, error) {
	return s.rounds.ListByUser(ctx, userID, limit, offset)
}
