package handlers

import (
	"encoding/json"
	"net/http"

	"tossearn/internal/middleware"
	"tossearn/internal/money"
	"tossearn/internal/settings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	userCount, err := h.users.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	gameCount, err := h.games.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	pendingWithdrawals, err := h.withdrawals.CountPending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	settledWithdrawals, err := h.withdrawals.SumSettled(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	depositTotal, err := h.deposits.SumAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_users":         userCount,
		"total_games":         gameCount,
		"pending_withdrawals": pendingWithdrawals,
		"total_withdrawn":     money.Rupees(settledWithdrawals),
		"total_deposited":     money.Rupees(depositTotal),
	})
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	users, err := h.users.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": responses})
}

type banRequest struct {
	Banned bool `json:"banned"`
}

func (h *Handler) AdminBanUser(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if targetID == adminID {
		respondError(w, http.StatusBadRequest, "cannot ban your own account")
		return
	}
	var affected int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.users.SetBanned(r.Context(), tx, targetID, req.Banned)
		if err != nil {
			return err
		}
		affected = rows
		if rows == 0 {
			return nil
		}
		action := "unban_user"
		if req.Banned {
			action = "ban_user"
		}
		return h.audit.Log(r.Context(), tx, adminID, action, "user", targetID, "{}")
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user_id": targetID, "banned": req.Banned})
}

type adjustRequest struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

func (h *Handler) AdminAdjustBalance(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	delta, err := money.FromRupees(req.Amount)
	if err != nil || delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	balance, err := h.ledgerSvc.AdminAdjust(r.Context(), adminID, targetID, delta, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": targetID,
		"balance": money.Rupees(balance),
	})
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	requests, err := h.withdrawSvc.ListPending(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	withdrawals := make([]map[string]any, 0, len(requests))
	for _, request := range requests {
		item := map[string]any{
			"id":         request.ID,
			"user_id":    request.UserID,
			"username":   request.Username,
			"amount":     money.Rupees(request.Amount),
			"method":     request.Method,
			"status":     request.Status,
			"created_at": request.CreatedAt,
		}
		if request.UPIID != nil {
			item["upi_id"] = *request.UPIID
		}
		if request.AccountNumber != nil {
			item["account_number"] = *request.AccountNumber
		}
		if request.IFSCCode != nil {
			item["ifsc_code"] = *request.IFSCCode
		}
		withdrawals = append(withdrawals, item)
	}
	respondJSON(w, http.StatusOK, map[string]any{"withdrawals": withdrawals})
}

func (h *Handler) AdminApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")
	if err := h.withdrawSvc.Approve(r.Context(), adminID, requestID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"request_id": requestID, "status": "approved"})
}

func (h *Handler) AdminRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")
	if err := h.withdrawSvc.Reject(r.Context(), adminID, requestID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"request_id": requestID, "status": "rejected"})
}

type prizeTierPayload struct {
	Amount float64 `json:"amount"`
	Weight int64   `json:"weight"`
}

type settingsPayload struct {
	Version                 int64              `json:"version"`
	CoinTossMinBet          float64            `json:"coin_toss_min_bet"`
	CoinTossMaxBet          float64            `json:"coin_toss_max_bet"`
	CoinTossPayout          float64            `json:"coin_toss_payout"`
	SpinWheelCost           float64            `json:"spin_wheel_cost"`
	SpinPrizes              []prizeTierPayload `json:"spin_prizes"`
	ReferralBonus           float64            `json:"referral_bonus"`
	WelcomeBonus            float64            `json:"welcome_bonus"`
	MinWithdrawal           float64            `json:"min_withdrawal"`
	WithdrawalAutoThreshold float64            `json:"withdrawal_auto_threshold"`
}

func toSettingsPayload(cfg settings.Settings) settingsPayload {
	payout, _ := cfg.CoinTossPayout.Float64()
	payload := settingsPayload{
		Version:                 cfg.Version,
		CoinTossMinBet:          money.Rupees(cfg.CoinTossMinBet),
		CoinTossMaxBet:          money.Rupees(cfg.CoinTossMaxBet),
		CoinTossPayout:          payout,
		SpinWheelCost:           money.Rupees(cfg.SpinWheelCost),
		ReferralBonus:           money.Rupees(cfg.ReferralBonus),
		WelcomeBonus:            money.Rupees(cfg.WelcomeBonus),
		MinWithdrawal:           money.Rupees(cfg.MinWithdrawal),
		WithdrawalAutoThreshold: money.Rupees(cfg.WithdrawalAutoThreshold),
	}
	for _, tier := range cfg.SpinPrizes {
		payload.SpinPrizes = append(payload.SpinPrizes, prizeTierPayload{
			Amount: money.Rupees(tier.Amount),
			Weight: tier.Weight,
		})
	}
	return payload
}

func fromSettingsPayload(payload settingsPayload) (settings.Settings, error) {
	minBet, err := money.FromRupees(payload.CoinTossMinBet)
	if err != nil {
		return settings.Settings{}, err
	}
	maxBet, err := money.FromRupees(payload.CoinTossMaxBet)
	if err != nil {
		return settings.Settings{}, err
	}
	spinCost, err := money.FromRupees(payload.SpinWheelCost)
	if err != nil {
		return settings.Settings{}, err
	}
	referralBonus, err := money.FromRupees(payload.ReferralBonus)
	if err != nil {
		return settings.Settings{}, err
	}
	welcomeBonus, err := money.FromRupees(payload.WelcomeBonus)
	if err != nil {
		return settings.Settings{}, err
	}
	minWithdrawal, err := money.FromRupees(payload.MinWithdrawal)
	if err != nil {
		return settings.Settings{}, err
	}
	autoThreshold, err := money.FromRupees(payload.WithdrawalAutoThreshold)
	if err != nil {
		return settings.Settings{}, err
	}
	cfg := settings.Settings{
		Version:                 payload.Version,
		CoinTossMinBet:          minBet,
		CoinTossMaxBet:          maxBet,
		CoinTossPayout:          decimal.NewFromFloat(payload.CoinTossPayout),
		SpinWheelCost:           spinCost,
		ReferralBonus:           referralBonus,
		WelcomeBonus:            welcomeBonus,
		MinWithdrawal:           minWithdrawal,
		WithdrawalAutoThreshold: autoThreshold,
	}
	for _, tier := range payload.SpinPrizes {
		amount, err := money.FromRupees(tier.Amount)
		if err != nil {
			return settings.Settings{}, err
		}
		cfg.SpinPrizes = append(cfg.SpinPrizes, settings.PrizeTier{Amount: amount, Weight: tier.Weight})
	}
	return cfg, nil
}

func (h *Handler) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toSettingsPayload(h.settingsSvc.Current()))
}

func (h *Handler) AdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	next, err := fromSettingsPayload(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	updated, err := h.settingsSvc.Update(r.Context(), next)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(payload)
		return h.audit.Log(r.Context(), tx, adminID, "update_settings", "platform_settings", "1", string(data))
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsPayload(updated))
}

func (h *Handler) AdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// AdminReconcile replays the ledger against stored balances and checks
// that every wager debit has its round record.
func (h *Handler) AdminReconcile(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.Reconcile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	drifted := make([]map[string]any, 0)
	for _, row := range rows {
		if row.Difference == 0 {
			continue
		}
		drifted = append(drifted, map[string]any{
			"user_id":        row.UserID,
			"username":       row.Username,
			"ledger_sum":     money.Rupees(row.LedgerSum),
			"stored_balance": money.Rupees(row.StoredBalance),
			"difference":     money.Rupees(row.Difference),
		})
	}
	unpaired, err := h.ledger.UnpairedBetCorrelations(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":            len(drifted) == 0 && len(unpaired) == 0,
		"accounts":      len(rows),
		"drift":         drifted,
		"unpaired_bets": unpaired,
	})
}
