package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/auth"
	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/fee"
	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/service/transaction"
)

type snapshotStore interface {
	Load(ctx context.Context, defaults domain.Account) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}

type WalletConfig struct {
	Defaults       domain.Account
	SeedSamples    bool
	FailurePolicy  ledger.FailurePolicy
	Stager         transaction.StagerConfig
	Fees           *fee.Policy
	MaxPINAttempts int
	PINLockout     time.Duration
	Location       *time.Location
	JWTSecret      string
	JWTExpiry      time.Duration
}

// Wallet is the session object the presentation layer talks to. It owns the
// ledger and the staging area for one account.
type Wallet struct {
	ledger    *ledger.Ledger
	stager    *transaction.Stager
	validator *transaction.Validator
	fees      *fee.Policy
	pins      *auth.Gate
	jwtSecret string
	jwtExpiry time.Duration
}

type Session struct {
	ID        uuid.UUID
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
}

// OpenWallet loads the stored snapshot, falling back to cfg.Defaults when
// there is none, and seeds the sample history into an empty wallet.
func OpenWallet(ctx context.Context, store snapshotStore, cfg WalletConfig) (*Wallet, error) {
	log := logging.FromContext(ctx)

	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Fees == nil {
		cfg.Fees = fee.DefaultPolicy()
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = ledger.FailurePolicyRollback
	}

	snap, err := store.Load(ctx, cfg.Defaults)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info("no stored wallet, starting from defaults")
		snap = &domain.Snapshot{Account: cfg.Defaults}
	case err != nil:
		return nil, fmt.Errorf("OpenWallet: %w", err)
	}

	seeded := false
	if len(snap.Transactions) == 0 && cfg.SeedSamples {
		snap.Transactions = SampleTransactions(time.Now(), cfg.Location)
		seeded = true
	}

	l := ledger.New(*snap, store,
		ledger.WithFailurePolicy(cfg.FailurePolicy),
		ledger.WithLocation(cfg.Location),
	)
	if seeded {
		if err := l.Persist(ctx); err != nil {
			return nil, fmt.Errorf("OpenWallet: save seeded history: %w", err)
		}
		log.Info("seeded sample transactions", "count", len(snap.Transactions))
	}

	pins := auth.NewGate(cfg.MaxPINAttempts, cfg.PINLockout)

	return &Wallet{
		ledger:    l,
		stager:    transaction.NewStager(l, pins, cfg.Stager),
		validator: transaction.NewValidator(cfg.Fees),
		fees:      cfg.Fees,
		pins:      pins,
		jwtSecret: cfg.JWTSecret,
		jwtExpiry: cfg.JWTExpiry,
	}, nil
}

func (w *Wallet) Ledger() *ledger.Ledger { return w.ledger }

func (w *Wallet) Login(ctx context.Context, pin string) (*Session, error) {
	account := w.ledger.Account()
	if err := w.pins.Verify(account.PIN, pin); err != nil {
		logging.FromContext(ctx).Warn("login rejected", "error", err)
		return nil, fmt.Errorf("Login: %w", err)
	}

	sessionID := uuid.New()
	token, err := auth.GenerateToken(sessionID, account.Phone, w.jwtSecret, w.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	return &Session{
		ID:        sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(w.jwtExpiry),
		Account:   account,
	}, nil
}

// Logout ends the session. Tokens are stateless, so the only server-side
// effect is dropping any transaction left awaiting confirmation.
func (w *Wallet) Logout(ctx context.Context) {
	w.stager.Discard()
	logging.FromContext(ctx).Info("logged out")
}

func (w *Wallet) Profile() domain.Account {
	return w.ledger.Account()
}

func (w *Wallet) Balance() decimal.Decimal {
	return w.ledger.Balance()
}

func (w *Wallet) SendMoney(ctx context.Context, req transaction.SendMoneyRequest) (*domain.PendingTransaction, error) {
	p, err := w.validator.SendMoney(req, w.ledger.Balance())
	if err != nil {
		return nil, fmt.Errorf("SendMoney: %w", err)
	}
	return w.stage(ctx, p)
}

func (w *Wallet) CashOut(ctx context.Context, req transaction.CashOutRequest) (*domain.PendingTransaction, error) {
	p, err := w.validator.CashOut(req, w.ledger.Balance())
	if err != nil {
		return nil, fmt.Errorf("CashOut: %w", err)
	}
	return w.stage(ctx, p)
}

func (w *Wallet) Recharge(ctx context.Context, req transaction.RechargeRequest) (*domain.PendingTransaction, error) {
	p, err := w.validator.Recharge(req, w.ledger.Balance())
	if err != nil {
		return nil, fmt.Errorf("Recharge: %w", err)
	}
	return w.stage(ctx, p)
}

func (w *Wallet) Payment(ctx context.Context, req transaction.PaymentRequest) (*domain.PendingTransaction, error) {
	p, err := w.validator.Payment(req, w.ledger.Balance())
	if err != nil {
		return nil, fmt.Errorf("Payment: %w", err)
	}
	return w.stage(ctx, p)
}

func (w *Wallet) AddMoney(ctx context.Context, req transaction.AddMoneyRequest) (*domain.PendingTransaction, error) {
	p, err := w.validator.AddMoney(req)
	if err != nil {
		return nil, fmt.Errorf("AddMoney: %w", err)
	}
	return w.stage(ctx, p)
}

func (w *Wallet) stage(ctx context.Context, p *domain.PendingTransaction) (*domain.PendingTransaction, error) {
	if err := w.stager.Stage(*p); err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	logging.FromContext(ctx).Info("transaction staged", "type", p.Type, "amount", p.Amount.String())
	return p, nil
}

func (w *Wallet) Pending() *domain.PendingTransaction {
	return w.stager.Pending()
}

// PINLockedUntil reports when the current PIN lockout ends, or the zero time.
func (w *Wallet) PINLockedUntil() time.Time {
	return w.pins.LockedUntil()
}

func (w *Wallet) State() transaction.State {
	return w.stager.State()
}

// Confirm commits the pending transaction. A nil record with a nil error
// means nothing was staged.
func (w *Wallet) Confirm(ctx context.Context, pin string) (*domain.TransactionRecord, error) {
	log := logging.FromContext(ctx)

	rec, err := w.stager.Confirm(ctx, pin)
	if err != nil {
		if rec != nil {
			log.Error("transaction committed without durable save", "transaction_id", rec.ID, "error", err)
		}
		return rec, fmt.Errorf("Confirm: %w", err)
	}
	if rec != nil {
		log.Info("transaction committed",
			"transaction_id", rec.ID,
			"type", rec.Type,
			"amount", rec.Amount.String(),
			"balance", w.ledger.Balance().String(),
		)
	}
	return rec, nil
}

func (w *Wallet) Discard(ctx context.Context) {
	w.stager.Discard()
	logging.FromContext(ctx).Debug("pending transaction discarded")
}

// History accepts a transaction type, or "" / "all" for every record.
func (w *Wallet) History(filter string) ([]domain.TransactionRecord, error) {
	if filter == "" || filter == "all" {
		return w.ledger.History(""), nil
	}
	t := domain.TransactionType(filter)
	if !t.IsValid() {
		return nil, fmt.Errorf("History: %q: %w", filter, domain.ErrInvalidTransactionType)
	}
	return w.ledger.History(t), nil
}

func (w *Wallet) Recent(n int) []domain.TransactionRecord {
	return w.ledger.Recent(n)
}

type FeeQuote struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
	Fee    decimal.Decimal
	Total  decimal.Decimal
}

func (w *Wallet) CashOutFee(amount string) (*FeeQuote, error) {
	a, err := transaction.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("CashOutFee: %w", err)
	}
	return &FeeQuote{
		Rate:   w.fees.CashOutRate(),
		Amount: a,
		Fee:    w.fees.Compute(domain.TransactionTypeCashOut, a),
		Total:  w.fees.Total(domain.TransactionTypeCashOut, a),
	}, nil
}
