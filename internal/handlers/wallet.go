package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"tossearn/internal/auth"
	"tossearn/internal/middleware"
	"tossearn/internal/money"
	"tossearn/internal/services"
	"tossearn/internal/store"
	"tossearn/internal/websocket"
)

// walletKinds are the ledger kinds shown as "transactions"; wagers and
// wins live under game history instead.
var walletKinds = []string{
	store.KindDeposit,
	store.KindWithdrawalHold,
	store.KindWithdrawalRefund,
	store.KindReferralBonus,
	store.KindAdminAdjustment,
}

func (h *Handler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	entries, err := h.ledger.ListByUser(r.Context(), userID, walletKinds, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	transactions := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, map[string]any{
			"id":            entry.ID,
			"kind":          entry.Kind,
			"amount":        money.Rupees(entry.Amount),
			"balance_after": money.Rupees(entry.BalanceAfter),
			"description":   entry.Description,
			"created_at":    entry.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

type withdrawRequest struct {
	Amount        float64 `json:"amount"`
	UPIID         string  `json:"upi_id"`
	AccountNumber string  `json:"account_number"`
	IFSCCode      string  `json:"ifsc_code"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := money.FromRupees(req.Amount)
	if err != nil || amount <= 0 {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	dest := services.WithdrawalDestination{
		Method:        store.MethodBank,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
	}
	if req.UPIID != "" {
		dest = services.WithdrawalDestination{Method: store.MethodUPI, UPIID: req.UPIID}
	}
	created, err := h.withdrawSvc.Create(r.Context(), userID, amount, dest)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	message := "Withdrawal request submitted for review"
	if created.Status == store.WithdrawalAutoSettled {
		message = "Withdrawal processed"
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"request_id": created.RequestID,
		"status":     created.Status,
		"balance":    money.Rupees(created.Balance),
		"message":    message,
	})
}

func (h *Handler) WithdrawalHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	offset := parseInt(r.URL.Query().Get("offset"), 0)
	requests, err := h.withdrawSvc.HistoryByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	withdrawals := make([]map[string]any, 0, len(requests))
	for _, request := range requests {
		item := map[string]any{
			"id":         request.ID,
			"amount":     money.Rupees(request.Amount),
			"method":     request.Method,
			"status":     request.Status,
			"created_at": request.CreatedAt,
		}
		if request.ResolvedAt != nil {
			item["resolved_at"] = *request.ResolvedAt
		}
		withdrawals = append(withdrawals, item)
	}
	respondJSON(w, http.StatusOK, map[string]any{"withdrawals": withdrawals})
}

type webhookRequest struct {
	PaymentReference string  `json:"payment_reference"`
	UserID           string  `json:"user_id"`
	Amount           float64 `json:"amount"`
}

// PaymentWebhook receives deposit confirmations from the payment gateway.
// Redelivery of an already-processed reference is acknowledged with 200 so
// the gateway stops retrying.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.WebhookSecret)) != 1 {
		respondError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := money.FromRupees(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	balance, err := h.depositSvc.Confirm(r.Context(), req.PaymentReference, req.UserID, amount)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateDeposit) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "already_processed"})
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "processed",
		"balance": money.Rupees(balance),
	})
}

// WSBalances upgrades to a websocket that streams balance updates.
// Browsers cannot set an Authorization header on a websocket handshake,
// so the token travels as a query parameter.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
