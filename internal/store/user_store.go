package store

import (
	"context"
	"time"
)

type UserStore struct {
	db DB
}

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	IsBanned     bool      `db:"is_banned"`
	Balance      int64     `db:"balance"`
	GamesPlayed  int64     `db:"games_played"`
	GamesWon     int64     `db:"games_won"`
	ReferralCode string    `db:"referral_code"`
	ReferredBy   *string   `db:"referred_by"`
	CreatedAt    time.Time `db:"created_at"`
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, user User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_admin, balance, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Username, user.PasswordHash, user.IsAdmin, user.Balance, user.ReferralCode, user.ReferredBy)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		WHERE username = $1
	`, username)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByReferralCode(ctx context.Context, code string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		WHERE referral_code = $1
	`, code)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

// GetForUpdate locks the user row for the duration of the transaction,
// serializing all balance mutation for that account.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (User, error) {
	var row User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) UpdateBalance(ctx context.Context, tx Execer, userID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = $1
		WHERE id = $2
	`, balance, userID)
	return err
}

func (s *UserStore) IncrementCounters(ctx context.Context, tx Execer, userID string, played, won int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET games_played = games_played + $1, games_won = games_won + $2
		WHERE id = $3
	`, played, won, userID)
	return err
}

func (s *UserStore) SetBanned(ctx context.Context, tx Execer, userID string, banned bool) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_banned = $1
		WHERE id = $2
	`, banned, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) SetAdmin(ctx context.Context, tx Execer, userID string, isAdmin bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_admin = $1
		WHERE id = $2
	`, isAdmin, userID)
	return err
}

func (s *UserStore) ListAll(ctx context.Context, limit, offset int) ([]User, error) {
	var rows []User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Leaderboard returns the top non-banned players by balance.
func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]User, error) {
	var rows []User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, password_hash, is_admin, is_banned, balance,
		       games_played, games_won, referral_code, referred_by, created_at
		FROM users
		WHERE is_banned = FALSE
		ORDER BY balance DESC, games_won DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// HasAnyUser runs on the caller's transaction so the first-registration
// admin grant cannot race with a concurrent signup.
func (s *UserStore) HasAnyUser(ctx context.Context, tx Getter) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users)`)
	return exists, err
}
