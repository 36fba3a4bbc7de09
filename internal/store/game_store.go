package store

import (
	"context"
	"time"
)

const (
	GameCoinToss  = "coin_toss"
	GameSpinWheel = "spin_wheel"
)

type GameStore struct {
	db DB
}

type GameRoundInput struct {
	ID            string
	UserID        string
	Game          string
	BetAmount     int64
	Choice        *string
	Outcome       string
	Payout        int64
	Won           bool
	CorrelationID string
}

type GameRound struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Game          string    `db:"game"`
	BetAmount     int64     `db:"bet_amount"`
	Choice        *string   `db:"choice"`
	Outcome       string    `db:"outcome"`
	Payout        int64     `db:"payout"`
	Won           bool      `db:"won"`
	CorrelationID string    `db:"correlation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func NewGameStore(db DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Insert(ctx context.Context, tx Execer, round GameRoundInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO game_rounds (id, user_id, game, bet_amount, choice, outcome, payout, won, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, round.ID, round.UserID, round.Game, round.BetAmount, round.Choice, round.Outcome, round.Payout, round.Won, round.CorrelationID)
	return err
}

func (s *GameStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]GameRound, error) {
	var rows []GameRound
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, game, bet_amount, choice, outcome, payout, won, correlation_id, created_at
		FROM game_rounds
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GameStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM game_rounds`)
	return count, err
}
