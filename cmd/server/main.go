package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tossearn/internal/config"
	"tossearn/internal/db"
	"tossearn/internal/handlers"
	"tossearn/internal/services"
	"tossearn/internal/settings"
	"tossearn/internal/store"
	"tossearn/internal/websocket"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.AppEnv == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	ledger := store.NewLedgerStore(database)
	games := store.NewGameStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	referrals := store.NewReferralStore(database)
	deposits := store.NewDepositStore(database)
	settingsStore := store.NewSettingsStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	settingsSvc := settings.NewService(settingsStore, txRunner)
	if err := settingsSvc.Load(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to load platform settings")
	}

	ledgerSvc := services.NewLedgerService(txRunner, users, ledger, audit, hub)
	gameSvc := services.NewGameService(txRunner, users, ledgerSvc, games, settingsSvc, services.CryptoOutcomeSource{}, hub)
	withdrawSvc := services.NewWithdrawalService(txRunner, ledgerSvc, withdrawals, settingsSvc, audit, hub)
	referralSvc := services.NewReferralService(users, ledgerSvc, referrals, settingsSvc)
	depositSvc := services.NewDepositService(txRunner, ledgerSvc, deposits, hub)

	handler := handlers.New(txRunner, cfg, users, ledger, games, withdrawals, deposits, audit,
		ledgerSvc, gameSvc, withdrawSvc, referralSvc, depositSvc, settingsSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("tossearn API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("shutdown error")
	}
}
