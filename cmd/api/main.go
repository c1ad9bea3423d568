package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/pocket-wallet/internal/config"
	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/fee"
	"github.com/josh-kwaku/pocket-wallet/internal/handler"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/middleware"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
	"github.com/josh-kwaku/pocket-wallet/internal/repository"
	"github.com/josh-kwaku/pocket-wallet/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("pocket-wallet", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.OpenStore(ctx, cfg.StoreOptions())
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	wallet, err := service.OpenWallet(logging.WithLogger(ctx, logger), store, service.WalletConfig{
		Defaults:       domain.DefaultAccount(),
		SeedSamples:    cfg.SeedSampleData,
		FailurePolicy:  cfg.FailurePolicy(),
		Stager:         cfg.StagerConfig(),
		Fees:           fee.NewPolicy(cfg.CashOutFeeRate),
		MaxPINAttempts: cfg.MaxPINAttempts,
		PINLockout:     cfg.PINLockout,
		Location:       cfg.Location(),
		JWTSecret:      cfg.JWTSecret,
		JWTExpiry:      cfg.JWTExpiry,
	})
	if err != nil {
		slog.Error("failed to open wallet", "error", err)
		os.Exit(1)
	}

	// The flusher outlives the signal context so its final flush runs after
	// in-flight requests have drained.
	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		service.NewFlusher(wallet.Ledger(), logger.With("component", "flusher"), cfg.FlushInterval).Start(flushCtx)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, wallet, store),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15*time.Second + cfg.ConfirmTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := drain(shutdownCtx, srv, stopFlusher, flusherDone); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server stopped")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// drain stops the server first and only then the flusher, waiting for its
// last flush to finish.
func drain(ctx context.Context, srv shutdowner, stopFlusher context.CancelFunc, flusherDone <-chan struct{}) error {
	err := srv.Shutdown(ctx)
	stopFlusher()
	<-flusherDone
	return err
}

func newRouter(cfg *config.Config, wallet *service.Wallet, store repository.Store) http.Handler {
	health := handler.NewHealthHandler(store, wallet.Ledger())
	authH := handler.NewAuthHandler(wallet)
	account := handler.NewAccountHandler(wallet)
	fees := handler.NewFeeHandler(wallet)
	txs := handler.NewTransactionHandler(wallet, present.NewFormatter(cfg.Location()))

	protected := middleware.Auth(cfg.JWTSecret)
	authed := func(h http.HandlerFunc) http.Handler { return protected(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)

	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.Handle("POST /api/v1/auth/logout", authed(authH.Logout))

	mux.Handle("GET /api/v1/account", authed(account.Get))
	mux.Handle("GET /api/v1/fees/cashout", authed(fees.CashOut))

	mux.Handle("GET /api/v1/transactions", authed(txs.List))
	mux.Handle("GET /api/v1/transactions/recent", authed(txs.Recent))
	mux.Handle("POST /api/v1/transactions/send", authed(txs.SendMoney))
	mux.Handle("POST /api/v1/transactions/cashout", authed(txs.CashOut))
	mux.Handle("POST /api/v1/transactions/recharge", authed(txs.Recharge))
	mux.Handle("POST /api/v1/transactions/payment", authed(txs.Payment))
	mux.Handle("POST /api/v1/transactions/addmoney", authed(txs.AddMoney))
	mux.Handle("GET /api/v1/transactions/pending", authed(txs.Pending))
	mux.Handle("DELETE /api/v1/transactions/pending", authed(txs.Discard))
	mux.Handle("POST /api/v1/transactions/confirm", authed(txs.Confirm))

	return middleware.Recovery(middleware.Tracing(middleware.Logging(mux)))
}
