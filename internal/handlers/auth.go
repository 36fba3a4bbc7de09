package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"tossearn/internal/auth"
	"tossearn/internal/db"
	"tossearn/internal/middleware"
	"tossearn/internal/money"
	"tossearn/internal/store"
	"tossearn/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Balance      float64 `json:"balance"`
	GamesPlayed  int64   `json:"games_played"`
	GamesWon     int64   `json:"games_won"`
	ReferralCode string  `json:"referral_code"`
	IsAdmin      bool    `json:"is_admin"`
	IsBanned     bool    `json:"is_banned"`
}

func toUserResponse(user store.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		Balance:      money.Rupees(user.Balance),
		GamesPlayed:  user.GamesPlayed,
		GamesWon:     user.GamesWon,
		ReferralCode: user.ReferralCode,
		IsAdmin:      user.IsAdmin,
		IsBanned:     user.IsBanned,
	}
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newReferralCode draws 8 characters from an alphabet without the
// lookalikes 0/O and 1/I, since users share these codes by hand.
func newReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = referralCodeAlphabet[int(buf[i])%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, "username must be 3-30 letters, digits or underscores")
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	var referrerID string
	if req.ReferralCode != "" {
		referrer, err := h.referralSvc.ResolveReferrer(r.Context(), req.ReferralCode)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		referrerID = referrer.ID
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	code, err := newReferralCode()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		ReferralCode: code,
	}
	if referrerID != "" {
		user.ReferredBy = &referrerID
	}

	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		// The very first account becomes the admin; checked on this
		// transaction so concurrent first signups serialize on it.
		hasUsers, err := h.users.HasAnyUser(r.Context(), tx)
		if err != nil {
			return err
		}
		user.IsAdmin = !hasUsers
		if err := h.users.Create(r.Context(), tx, user); err != nil {
			return err
		}
		if referrerID != "" {
			return h.referralSvc.ApplyOnRegistration(r.Context(), tx, user.ID, referrerID)
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			respondError(w, http.StatusConflict, "username already taken")
			return
		}
		respondServiceError(w, err)
		return
	}

	created, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  toUserResponse(created),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.IsBanned {
		respondError(w, http.StatusForbidden, "account is banned")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) Referrals(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	credits, err := h.referralSvc.ListByReferrer(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	referrals := make([]map[string]any, 0, len(credits))
	var total int64
	for _, credit := range credits {
		total += credit.Amount
		referrals = append(referrals, map[string]any{
			"username":  credit.Username,
			"bonus":     money.Rupees(credit.Amount),
			"joined_at": credit.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"referrals":    referrals,
		"total_earned": money.Rupees(total),
	})
}
