package handlers

import (
	"encoding/json"
	"net/http"

	"tossearn/internal/middleware"
	"tossearn/internal/money"
)

type tossRequest struct {
	Amount float64 `json:"amount"`
	Choice string  `json:"choice"`
}

func (h *Handler) PlayToss(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req tossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bet, err := money.FromRupees(req.Amount)
	if err != nil || bet <= 0 {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	result, err := h.gameSvc.PlayCoinToss(r.Context(), userID, bet, req.Choice)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"outcome":    result.Outcome,
		"won":        result.Won,
		"win_amount": money.Rupees(result.WinAmount),
		"balance":    money.Rupees(result.Balance),
	})
}

func (h *Handler) PlaySpin(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	result, err := h.gameSvc.PlaySpinWheel(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"prize":   money.Rupees(result.Prize),
		"balance": money.Rupees(result.Balance),
	})
}

// Leaderboard returns the top players for the home page, richest first.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 10)
	players, err := h.users.Leaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	board := make([]map[string]any, 0, len(players))
	for _, player := range players {
		board = append(board, map[string]any{
			"username":    player.Username,
			"total_games": player.GamesPlayed,
			"total_won":   player.GamesWon,
			"balance":     money.Rupees(player.Balance),
		})
	}
	respondJSON(w, http.StatusOK, board)
}

func (h *Handler) GameHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	rounds, err := h.gameSvc.History(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	history := make([]map[string]any, 0, len(rounds))
	for _, round := range rounds {
		item := map[string]any{
			"id":         round.ID,
			"game":       round.Game,
			"bet_amount": money.Rupees(round.BetAmount),
			"outcome":    round.Outcome,
			"payout":     money.Rupees(round.Payout),
			"won":        round.Won,
			"played_at":  round.CreatedAt,
		}
		if round.Choice != nil {
			item["choice"] = *round.Choice
		}
		history = append(history, item)
	}
	respondJSON(w, http.StatusOK, map[string]any{"games": history})
}
