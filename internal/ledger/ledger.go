package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
)

// DateLayout is the display date stored on every record, e.g. "20 Nov 2025 10:30 AM".
const DateLayout = "02 Jan 2006 03:04 PM"

const (
	idPrefix    = "TXN"
	idSuffixLen = 9
)

type snapshotSaver interface {
	Save(ctx context.Context, snap *domain.Snapshot) error
}

type FailurePolicy string

const (
	// FailurePolicyRollback undoes the commit when it cannot be saved.
	FailurePolicyRollback FailurePolicy = "rollback"
	// FailurePolicyFlag keeps the commit in memory and marks the ledger dirty
	// until a later save succeeds.
	FailurePolicyFlag FailurePolicy = "flag"
)

func (p FailurePolicy) IsValid() bool {
	return p == FailurePolicyRollback || p == FailurePolicyFlag
}

// Precondition is evaluated against the account inside the commit's critical
// section. A non-nil error aborts the commit.
type Precondition func(account domain.Account) error

type Option func(*Ledger)

func WithFailurePolicy(p FailurePolicy) Option {
	return func(l *Ledger) { l.policy = p }
}

func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// Ledger owns one account's balance and its append-only, most-recent-first
// history. All mutation goes through Apply.
type Ledger struct {
	mu      sync.Mutex
	account domain.Account
	history []domain.TransactionRecord
	ids     map[string]struct{}
	dirty   bool

	store  snapshotSaver
	policy FailurePolicy
	loc    *time.Location
	now    func() time.Time
	newID  func() string
}

func New(snap domain.Snapshot, store snapshotSaver, opts ...Option) *Ledger {
	l := &Ledger{
		account: snap.Account,
		history: append([]domain.TransactionRecord(nil), snap.Transactions...),
		ids:     make(map[string]struct{}, len(snap.Transactions)),
		store:   store,
		policy:  FailurePolicyRollback,
		loc:     time.Local,
		now:     time.Now,
		newID:   randomID,
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, rec := range l.history {
		l.ids[rec.ID] = struct{}{}
	}
	return l
}

func randomID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return idPrefix + raw[:idSuffixLen]
}

func (l *Ledger) uniqueID() string {
	for {
		id := l.newID()
		if _, taken := l.ids[id]; !taken {
			return id
		}
	}
}

// Apply commits a pending transaction: it stamps an id and timestamp, moves
// the balance by the signed amount, prepends the record and saves the result.
// Under FailurePolicyFlag a failed save still returns the record alongside an
// error wrapping domain.ErrPersistenceFailure.
func (l *Ledger) Apply(ctx context.Context, p domain.PendingTransaction, checks ...Precondition) (*domain.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, check := range checks {
		if err := check(l.account); err != nil {
			return nil, fmt.Errorf("Ledger.Apply: %w", err)
		}
	}

	now := l.now()
	rec := domain.TransactionRecord{
		ID:        l.uniqueID(),
		Type:      p.Type,
		Title:     p.Title,
		Amount:    p.Amount,
		Fee:       p.Fee,
		Timestamp: now,
		Date:      now.In(l.loc).Format(DateLayout),
		Metadata:  p.Metadata,
	}

	prevBalance := l.account.Balance
	prevHistory := l.history

	l.account.Balance = prevBalance.Add(rec.Amount)
	l.history = append([]domain.TransactionRecord{rec}, prevHistory...)
	l.ids[rec.ID] = struct{}{}

	if err := l.store.Save(ctx, l.snapshotLocked()); err != nil {
		log := logging.FromContext(ctx)
		if l.policy == FailurePolicyFlag {
			l.dirty = true
			log.Error("transaction applied but not persisted", "transaction_id", rec.ID, "error", err)
			return &rec, fmt.Errorf("Ledger.Apply: %w: %w", domain.ErrPersistenceFailure, err)
		}

		l.account.Balance = prevBalance
		l.history = prevHistory
		delete(l.ids, rec.ID)
		log.Error("transaction rolled back, save failed", "transaction_id", rec.ID, "error", err)
		return nil, fmt.Errorf("Ledger.Apply: %w: %w", domain.ErrPersistenceFailure, err)
	}

	l.dirty = false
	return &rec, nil
}

// Persist saves the current state unconditionally.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}

// Flush saves the current state if an earlier save failed. It reports whether
// anything was written.
func (l *Ledger) Flush(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return false, nil
	}
	if err := l.persistLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.store.Save(ctx, l.snapshotLocked()); err != nil {
		return fmt.Errorf("Ledger.Persist: %w: %w", domain.ErrPersistenceFailure, err)
	}
	l.dirty = false
	return nil
}

func (l *Ledger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account.Balance
}

func (l *Ledger) Account() domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// History returns the records of the given type, or all of them when filter
// is empty, most recent first.
func (l *Ledger) History(filter domain.TransactionType) []domain.TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.TransactionRecord, 0, len(l.history))
	for _, rec := range l.history {
		if filter == "" || rec.Type == filter {
			out = append(out, rec)
		}
	}
	return out
}

func (l *Ledger) Recent(n int) []domain.TransactionRecord {
	all := l.History("")
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		all = all[:n]
	}
	return all
}

func (l *Ledger) snapshotLocked() *domain.Snapshot {
	return &domain.Snapshot{
		Account:      l.account,
		Transactions: append([]domain.TransactionRecord(nil), l.history...),
	}
}
