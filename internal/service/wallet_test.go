package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-wallet/internal/auth"
	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
	"github.com/josh-kwaku/pocket-wallet/internal/repository"
	"github.com/josh-kwaku/pocket-wallet/internal/service/transaction"
	"github.com/josh-kwaku/pocket-wallet/internal/testutil"
)

const testSecret = "test-jwt-secret"

func testConfig() WalletConfig {
	return WalletConfig{
		Defaults:       domain.DefaultAccount(),
		FailurePolicy:  ledger.FailurePolicyRollback,
		MaxPINAttempts: 3,
		PINLockout:     time.Minute,
		Location:       time.UTC,
		JWTSecret:      testSecret,
		JWTExpiry:      time.Hour,
	}
}

func openTestWallet(t *testing.T, store *repository.MemoryStore, cfg WalletConfig) *Wallet {
	t.Helper()
	w, err := OpenWallet(context.Background(), store, cfg)
	require.NoError(t, err)
	return w
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOpenWallet_Defaults(t *testing.T) {
	store := repository.NewMemoryStore()
	w := openTestWallet(t, store, testConfig())

	assert.Equal(t, "Demo User", w.Profile().Name)
	assert.True(t, w.Balance().Equal(dec("5420.50")))
	assert.Empty(t, w.Recent(5))
	assert.Zero(t, store.Saves())
}

func TestOpenWallet_SeedsSamples(t *testing.T) {
	store := repository.NewMemoryStore()
	cfg := testConfig()
	cfg.SeedSamples = true

	w := openTestWallet(t, store, cfg)

	history, err := w.History("all")
	require.NoError(t, err)
	require.Len(t, history, 8)
	assert.Equal(t, "TXN001", history[0].ID)
	assert.Equal(t, "TXN008", history[7].ID)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Timestamp.After(history[i].Timestamp))
	}
	assert.True(t, w.Balance().Equal(dec("5420.50")), "seeding does not move the balance")
	assert.Equal(t, 1, store.Saves())

	// A second open finds the stored history and does not reseed.
	again := openTestWallet(t, store, cfg)
	assert.Len(t, again.Recent(100), 8)
	assert.Equal(t, 1, store.Saves())
}

func TestOpenWallet_MergesStoredUser(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetRaw([]byte(`{"user":{"name":"Rahim","balance":100},"transactions":[]}`))

	w := openTestWallet(t, store, testConfig())
	assert.Equal(t, "Rahim", w.Profile().Name)
	assert.Equal(t, "01712345678", w.Profile().Phone)
	assert.True(t, w.Balance().Equal(dec("100")))
}

func TestOpenWallet_LoadError(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetRaw([]byte(`{broken`))

	_, err := OpenWallet(context.Background(), store, testConfig())
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	w := openTestWallet(t, repository.NewMemoryStore(), testConfig())
	ctx := context.Background()

	sess, err := w.Login(ctx, "1234")
	require.NoError(t, err)
	claims, err := auth.ValidateToken(sess.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, claims.SessionID)
	assert.Equal(t, "01712345678", claims.Phone)

	_, err = w.Login(ctx, "0000")
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
}

func TestLogin_SharesLockoutWithConfirm(t *testing.T) {
	w := openTestWallet(t, repository.NewMemoryStore(), testConfig())
	ctx := context.Background()

	_, err := w.AddMoney(ctx, transaction.AddMoneyRequest{Source: "Bank", Amount: "1"})
	require.NoError(t, err)

	_, err = w.Login(ctx, "1111")
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	_, err = w.Confirm(ctx, "2222")
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	_, err = w.Login(ctx, "3333")
	require.ErrorIs(t, err, domain.ErrPINLocked)

	_, err = w.Login(ctx, "1234")
	require.ErrorIs(t, err, domain.ErrPINLocked)
}

func TestLogin_HashedPIN(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.PIN = testutil.HashedPIN(t, "9876")
	w := openTestWallet(t, repository.NewMemoryStore(), cfg)

	_, err := w.Login(context.Background(), "9876")
	require.NoError(t, err)
}

func TestScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("send money", func(t *testing.T) {
		w := openTestWallet(t, repository.NewMemoryStore(), testConfig())

		p, err := w.SendMoney(ctx, transaction.SendMoneyRequest{Recipient: "01912345678", Amount: "500", Reference: "rent"})
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionTypeSend, p.Type)
		assert.True(t, p.Amount.Equal(dec("-500")))

		rec, err := w.Confirm(ctx, "1234")
		require.NoError(t, err)
		assert.True(t, w.Balance().Equal(dec("4920.50")))
		assert.Equal(t, rec.ID, w.Recent(1)[0].ID)
	})

	t.Run("cash out", func(t *testing.T) {
		w := openTestWallet(t, repository.NewMemoryStore(), testConfig())

		p, err := w.CashOut(ctx, transaction.CashOutRequest{Agent: "A1", Amount: "2000"})
		require.NoError(t, err)
		assert.True(t, p.Fee.Equal(dec("37")))
		assert.True(t, p.Amount.Equal(dec("-2037")))

		_, err = w.Confirm(ctx, "1234")
		require.NoError(t, err)
		assert.True(t, w.Balance().Equal(dec("3383.50")))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		cfg := testConfig()
		cfg.Defaults.Balance = dec("100.00")
		w := openTestWallet(t, repository.NewMemoryStore(), cfg)

		_, err := w.SendMoney(ctx, transaction.SendMoneyRequest{Recipient: "01912345678", Amount: "500"})
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Nil(t, w.Pending())
		assert.True(t, w.Balance().Equal(dec("100")))
		assert.Empty(t, w.Recent(5))
	})

	t.Run("add money", func(t *testing.T) {
		w := openTestWallet(t, repository.NewMemoryStore(), testConfig())

		_, err := w.AddMoney(ctx, transaction.AddMoneyRequest{Source: "Bank", Amount: "1000"})
		require.NoError(t, err)
		rec, err := w.Confirm(ctx, "1234")
		require.NoError(t, err)
		assert.True(t, rec.Amount.Equal(dec("1000")))
		assert.True(t, w.Balance().Equal(dec("6420.50")))
	})

	t.Run("wrong pin then retry", func(t *testing.T) {
		w := openTestWallet(t, repository.NewMemoryStore(), testConfig())

		_, err := w.SendMoney(ctx, transaction.SendMoneyRequest{Recipient: "01912345678", Amount: "500"})
		require.NoError(t, err)

		_, err = w.Confirm(ctx, "0000")
		require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
		assert.NotNil(t, w.Pending())
		assert.True(t, w.Balance().Equal(dec("5420.50")))

		_, err = w.Confirm(ctx, "1234")
		require.NoError(t, err)
		assert.True(t, w.Balance().Equal(dec("4920.50")))
	})
}

func TestCommitIsPersisted(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	w := openTestWallet(t, store, testConfig())

	_, err := w.Payment(ctx, transaction.PaymentRequest{Merchant: "Daraz", Invoice: "INV-9", Amount: "20.50"})
	require.NoError(t, err)
	_, err = w.Confirm(ctx, "1234")
	require.NoError(t, err)

	reopened := openTestWallet(t, store, testConfig())
	assert.True(t, reopened.Balance().Equal(dec("5400")))
	hist := reopened.Recent(5)
	require.Len(t, hist, 1)
	assert.Equal(t, "Payment to Daraz", hist[0].Title)
	assert.Equal(t, "INV-9", hist[0].Metadata.Invoice)
}

func TestHistoryFilter(t *testing.T) {
	cfg := testConfig()
	cfg.SeedSamples = true
	w := openTestWallet(t, repository.NewMemoryStore(), cfg)

	payments, err := w.History("payment")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "Payment to Daraz", payments[0].Title)

	all, err := w.History("")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = w.History("refund")
	require.ErrorIs(t, err, domain.ErrInvalidTransactionType)

	assert.Len(t, w.Recent(5), 5)
}

func TestLogoutDiscardsPending(t *testing.T) {
	w := openTestWallet(t, repository.NewMemoryStore(), testConfig())
	ctx := context.Background()

	_, err := w.Recharge(ctx, transaction.RechargeRequest{Operator: "Robi", Number: "018", Amount: "50"})
	require.NoError(t, err)
	require.NotNil(t, w.Pending())

	w.Logout(ctx)
	assert.Nil(t, w.Pending())
	assert.Equal(t, transaction.StateIdle, w.State())
}

func TestCashOutFee(t *testing.T) {
	w := openTestWallet(t, repository.NewMemoryStore(), testConfig())

	q, err := w.CashOutFee("2000")
	require.NoError(t, err)
	assert.True(t, q.Fee.Equal(dec("37")))
	assert.True(t, q.Total.Equal(dec("2037")))

	_, err = w.CashOutFee("abc")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFlusher(t *testing.T) {
	store := repository.NewMemoryStore()
	cfg := testConfig()
	cfg.FailurePolicy = ledger.FailurePolicyFlag
	w := openTestWallet(t, store, cfg)
	ctx := context.Background()

	_, err := w.AddMoney(ctx, transaction.AddMoneyRequest{Source: "Bank", Amount: "10"})
	require.NoError(t, err)

	store.SetSaveError(assert.AnError)
	rec, err := w.Confirm(ctx, "1234")
	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	require.NotNil(t, rec)
	require.True(t, w.Ledger().Dirty())

	store.SetSaveError(nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go NewFlusher(w.Ledger(), logger, 10*time.Millisecond).Start(runCtx)

	require.Eventually(t, func() bool { return !w.Ledger().Dirty() }, time.Second, 10*time.Millisecond)

	reopened := openTestWallet(t, store, testConfig())
	assert.True(t, reopened.Balance().Equal(dec("5430.50")))
}
