package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
)

type State string

const (
	StateIdle       State = "idle"
	StateStaged     State = "staged"
	StateConfirming State = "confirming"
)

type StagePolicy string

const (
	// StagePolicyReplace lets a new transaction overwrite an unconfirmed one.
	StagePolicyReplace StagePolicy = "replace"
	// StagePolicyReject refuses to stage while another transaction is waiting.
	StagePolicyReject StagePolicy = "reject"
)

func (p StagePolicy) IsValid() bool {
	return p == StagePolicyReplace || p == StagePolicyReject
}

type ledgerAccess interface {
	Account() domain.Account
	Apply(ctx context.Context, p domain.PendingTransaction, checks ...ledger.Precondition) (*domain.TransactionRecord, error)
}

type pinVerifier interface {
	Verify(stored, supplied string) error
}

type StagerConfig struct {
	Policy StagePolicy
	// Delay simulates settlement latency between PIN acceptance and commit.
	Delay time.Duration
	// Timeout bounds the whole wait. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Stager holds at most one pending transaction awaiting PIN confirmation.
type Stager struct {
	mu         sync.Mutex
	ledger     ledgerAccess
	pins       pinVerifier
	cfg        StagerConfig
	pending    *domain.PendingTransaction
	generation uint64
	confirming bool
}

func NewStager(l ledgerAccess, pins pinVerifier, cfg StagerConfig) *Stager {
	if cfg.Policy == "" {
		cfg.Policy = StagePolicyReplace
	}
	return &Stager{ledger: l, pins: pins, cfg: cfg}
}

func (s *Stager) Stage(p domain.PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.confirming {
		return fmt.Errorf("Stager.Stage: %w", domain.ErrConfirmationInProgress)
	}
	if s.pending != nil && s.cfg.Policy == StagePolicyReject {
		return fmt.Errorf("Stager.Stage: %w", domain.ErrTransactionAlreadyStaged)
	}

	s.pending = &p
	s.generation++
	return nil
}

// Discard drops the pending transaction. It is safe to call in any state; a
// confirmation still inside its delay will notice and not commit.
func (s *Stager) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return
	}
	s.pending = nil
	s.generation++
}

func (s *Stager) Pending() *domain.PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

func (s *Stager) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.confirming:
		return StateConfirming
	case s.pending != nil:
		return StateStaged
	default:
		return StateIdle
	}
}

// Confirm checks the PIN and commits the pending transaction after the
// configured delay. With nothing staged it returns (nil, nil). A wrong PIN or
// a cancelled wait leaves the transaction staged.
func (s *Stager) Confirm(ctx context.Context, pin string) (*domain.TransactionRecord, error) {
	s.mu.Lock()
	if s.confirming {
		s.mu.Unlock()
		return nil, fmt.Errorf("Stager.Confirm: %w", domain.ErrConfirmationInProgress)
	}
	if s.pending == nil {
		s.mu.Unlock()
		return nil, nil
	}
	if err := s.pins.Verify(s.ledger.Account().PIN, pin); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("Stager.Confirm: %w", err)
	}

	p := *s.pending
	gen := s.generation
	s.confirming = true
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		s.mu.Lock()
		s.confirming = false
		s.mu.Unlock()
		logging.FromContext(ctx).Warn("confirmation abandoned", "type", p.Type, "error", err)
		return nil, fmt.Errorf("Stager.Confirm: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.confirming = false }()

	if s.pending == nil || s.generation != gen {
		return nil, fmt.Errorf("Stager.Confirm: %w", domain.ErrTransactionDiscarded)
	}

	rec, err := s.ledger.Apply(ctx, p, SufficientFunds(p))
	if rec != nil {
		s.pending = nil
		s.generation++
	}
	if err != nil {
		return rec, fmt.Errorf("Stager.Confirm: %w", err)
	}
	return rec, nil
}

func (s *Stager) wait(ctx context.Context) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
