package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tossearn/internal/db"
	"tossearn/internal/services"
	"tossearn/internal/settings"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Business
// rule violations become 4xx with corrective detail; exhausted transaction
// retries become 503 so the caller knows a resubmit may succeed.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, services.ErrAccountBanned):
		respondError(w, http.StatusForbidden, "account is banned")
	case errors.Is(err, services.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, services.ErrInvalidWagerRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidChoice):
		respondError(w, http.StatusBadRequest, "choice must be heads or tails")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidWithdrawalMethod):
		respondError(w, http.StatusBadRequest, "invalid withdrawal method or destination")
	case errors.Is(err, services.ErrInvalidWithdrawalState):
		respondError(w, http.StatusConflict, "withdrawal is not pending")
	case errors.Is(err, services.ErrInvalidReferralCode):
		respondError(w, http.StatusBadRequest, "invalid referral code")
	case errors.Is(err, services.ErrDuplicateReferral):
		respondError(w, http.StatusConflict, "referral already credited")
	case errors.Is(err, settings.ErrInvalidSettings):
		respondError(w, http.StatusBadRequest, "invalid settings")
	case errors.Is(err, settings.ErrVersionConflict):
		respondError(w, http.StatusConflict, "settings changed concurrently, reload and retry")
	case errors.Is(err, db.ErrTxRetryExhausted):
		respondError(w, http.StatusServiceUnavailable, "temporary conflict, please retry")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
