package handlers

import (
	"context"
	"net/http"

	"tossearn/internal/config"
	"tossearn/internal/db"
	"tossearn/internal/middleware"
	"tossearn/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner    db.TxRunner
	cfg         config.Config
	users       UserStore
	ledger      LedgerStore
	games       GameStore
	withdrawals WithdrawalStore
	deposits    DepositStore
	audit       AuditStore
	ledgerSvc   LedgerService
	gameSvc     GameService
	withdrawSvc WithdrawalService
	referralSvc ReferralService
	depositSvc  DepositService
	settingsSvc SettingsService
	hub         *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, ledger LedgerStore, games GameStore, withdrawals WithdrawalStore, deposits DepositStore, audit AuditStore, ledgerSvc LedgerService, gameSvc GameService, withdrawSvc WithdrawalService, referralSvc ReferralService, depositSvc DepositService, settingsSvc SettingsService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:    txRunner,
		cfg:         cfg,
		users:       users,
		ledger:      ledger,
		games:       games,
		withdrawals: withdrawals,
		deposits:    deposits,
		audit:       audit,
		ledgerSvc:   ledgerSvc,
		gameSvc:     gameSvc,
		withdrawSvc: withdrawSvc,
		referralSvc: referralSvc,
		depositSvc:  depositSvc,
		settingsSvc: settingsSvc,
		hub:         hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Webhook-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/user/profile", h.Profile)
		r.Get("/user/referrals", h.Referrals)
		r.Post("/game/toss", h.PlayToss)
		r.Post("/game/spin", h.PlaySpin)
		r.Get("/game/history", h.GameHistory)
		r.Get("/game/leaderboard", h.Leaderboard)
		r.Get("/transaction/history", h.TransactionHistory)
		r.Post("/transaction/withdraw", h.Withdraw)
		r.Get("/transaction/withdrawals", h.WithdrawalHistory)
	})

	router.Post("/payments/webhook", h.PaymentWebhook)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(adminChecker{users: h.users}))
		r.Get("/dashboard", h.AdminDashboard)
		r.Get("/users", h.AdminListUsers)
		r.Post("/users/{id}/ban", h.AdminBanUser)
		r.Post("/users/{id}/balance", h.AdminAdjustBalance)
		r.Get("/withdrawals", h.AdminListWithdrawals)
		r.Post("/withdrawals/{id}/approve", h.AdminApproveWithdrawal)
		r.Post("/withdrawals/{id}/reject", h.AdminRejectWithdrawal)
		r.Get("/settings", h.AdminGetSettings)
		r.Post("/settings", h.AdminUpdateSettings)
		r.Get("/audit", h.AdminListAuditLogs)
		r.Get("/reconcile", h.AdminReconcile)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

type adminChecker struct {
	users UserStore
}

func (c adminChecker) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
