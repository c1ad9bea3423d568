package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

type mockStore struct {
	mu    sync.Mutex
	saved []*domain.Snapshot
	err   error
}

func (m *mockStore) Save(_ context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snap)
	return nil
}

func (m *mockStore) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockStore) last() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

var fixedNow = time.Date(2025, 11, 20, 10, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T, balance string, store *mockStore, opts ...Option) *Ledger {
	t.Helper()
	acct := domain.DefaultAccount()
	acct.Balance = decimal.RequireFromString(balance)
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	}, opts...)
	return New(domain.Snapshot{Account: acct}, store, opts...)
}

func sendPending(amount string) domain.PendingTransaction {
	return domain.PendingTransaction{
		Type:     domain.TransactionTypeSend,
		Title:    "Send Money to 01912345678",
		Amount:   decimal.RequireFromString(amount).Neg(),
		Fee:      decimal.Zero,
		Metadata: domain.Metadata{Recipient: "01912345678", Reference: "rent"},
	}
}

func TestApply(t *testing.T) {
	store := &mockStore{}
	l := newTestLedger(t, "5420.50", store)

	rec, err := l.Apply(context.Background(), sendPending("500"))
	require.NoError(t, err)

	assert.True(t, l.Balance().Equal(decimal.RequireFromString("4920.50")), "balance: %s", l.Balance())
	assert.Regexp(t, `^TXN[0-9A-Z]{9}$`, rec.ID)
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.Equal(t, "20 Nov 2025 10:30 AM", rec.Date)
	assert.Equal(t, "01912345678", rec.Metadata.Recipient)

	saved := store.last()
	require.NotNil(t, saved)
	require.Len(t, saved.Transactions, 1)
	assert.Equal(t, rec.ID, saved.Transactions[0].ID)
	assert.True(t, saved.Account.Balance.Equal(l.Balance()))
	assert.False(t, l.Dirty())
}

func TestApply_AppendOnlyMostRecentFirst(t *testing.T) {
	store := &mockStore{}
	l := newTestLedger(t, "10000", store)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := l.Apply(ctx, sendPending(fmt.Sprintf("%d", i*10)))
		require.NoError(t, err)
	}

	before := l.History("")
	require.Len(t, before, 4)

	rec, err := l.Apply(ctx, domain.PendingTransaction{
		Type:     domain.TransactionTypeAddMoney,
		Title:    "Add Money from Bank",
		Amount:   decimal.NewFromInt(1000),
		Metadata: domain.Metadata{Source: "Bank"},
	})
	require.NoError(t, err)

	after := l.History("")
	require.Len(t, after, len(before)+1)
	assert.Equal(t, rec.ID, after[0].ID)
	assert.Equal(t, before, after[1:])
}

func TestApply_UniqueIDs(t *testing.T) {
	ids := []string{"TXNAAAAAAAAA", "TXNAAAAAAAAA", "TXNBBBBBBBBB"}
	next := 0
	gen := func() string {
		id := ids[next]
		next++
		return id
	}

	l := newTestLedger(t, "1000", &mockStore{}, WithIDGenerator(gen))
	ctx := context.Background()

	first, err := l.Apply(ctx, sendPending("1"))
	require.NoError(t, err)
	second, err := l.Apply(ctx, sendPending("1"))
	require.NoError(t, err)

	assert.Equal(t, "TXNAAAAAAAAA", first.ID)
	assert.Equal(t, "TXNBBBBBBBBB", second.ID)
}

func TestApply_PreconditionAborts(t *testing.T) {
	store := &mockStore{}
	l := newTestLedger(t, "100", store)

	check := func(a domain.Account) error {
		if a.Balance.LessThan(decimal.NewFromInt(500)) {
			return domain.ErrInsufficientBalance
		}
		return nil
	}

	rec, err := l.Apply(context.Background(), sendPending("500"), check)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Nil(t, rec)
	assert.True(t, l.Balance().Equal(decimal.NewFromInt(100)))
	assert.Empty(t, l.History(""))
	assert.Nil(t, store.last())
}

func TestApply_SaveFailure(t *testing.T) {
	saveErr := errors.New("disk full")

	tests := []struct {
		name        string
		policy      FailurePolicy
		wantRecord  bool
		wantBalance string
		wantHistory int
		wantDirty   bool
	}{
		{
			name:        "rollback restores state",
			policy:      FailurePolicyRollback,
			wantRecord:  false,
			wantBalance: "5420.50",
			wantHistory: 0,
			wantDirty:   false,
		},
		{
			name:        "flag keeps commit and marks dirty",
			policy:      FailurePolicyFlag,
			wantRecord:  true,
			wantBalance: "4920.50",
			wantHistory: 1,
			wantDirty:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{err: saveErr}
			l := newTestLedger(t, "5420.50", store, WithFailurePolicy(tc.policy))

			rec, err := l.Apply(context.Background(), sendPending("500"))
			require.ErrorIs(t, err, domain.ErrPersistenceFailure)
			require.ErrorIs(t, err, saveErr)

			if tc.wantRecord {
				require.NotNil(t, rec)
			} else {
				assert.Nil(t, rec)
			}
			assert.True(t, l.Balance().Equal(decimal.RequireFromString(tc.wantBalance)), "balance: %s", l.Balance())
			assert.Len(t, l.History(""), tc.wantHistory)
			assert.Equal(t, tc.wantDirty, l.Dirty())
		})
	}
}

func TestFlush(t *testing.T) {
	store := &mockStore{err: errors.New("unavailable")}
	l := newTestLedger(t, "5420.50", store, WithFailurePolicy(FailurePolicyFlag))
	ctx := context.Background()

	_, err := l.Apply(ctx, sendPending("500"))
	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	require.True(t, l.Dirty())

	flushed, err := l.Flush(ctx)
	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.False(t, flushed)
	assert.True(t, l.Dirty())

	store.setErr(nil)
	flushed, err = l.Flush(ctx)
	require.NoError(t, err)
	assert.True(t, flushed)
	assert.False(t, l.Dirty())

	saved := store.last()
	require.NotNil(t, saved)
	assert.True(t, saved.Account.Balance.Equal(decimal.RequireFromString("4920.50")))

	flushed, err = l.Flush(ctx)
	require.NoError(t, err)
	assert.False(t, flushed)
}

func TestHistoryFilterAndRecent(t *testing.T) {
	l := newTestLedger(t, "10000", &mockStore{})
	ctx := context.Background()

	types := []domain.TransactionType{
		domain.TransactionTypeSend,
		domain.TransactionTypePayment,
		domain.TransactionTypeSend,
		domain.TransactionTypeRecharge,
		domain.TransactionTypeSend,
		domain.TransactionTypePayment,
	}
	for _, typ := range types {
		_, err := l.Apply(ctx, domain.PendingTransaction{Type: typ, Amount: decimal.NewFromInt(-1)})
		require.NoError(t, err)
	}

	sends := l.History(domain.TransactionTypeSend)
	assert.Len(t, sends, 3)
	for _, rec := range sends {
		assert.Equal(t, domain.TransactionTypeSend, rec.Type)
	}

	assert.Empty(t, l.History(domain.TransactionTypeCashOut))
	assert.Len(t, l.History(""), 6)

	recent := l.Recent(5)
	require.Len(t, recent, 5)
	assert.Equal(t, domain.TransactionTypePayment, recent[0].Type)
	assert.Equal(t, l.History("")[:5], recent)

	assert.Len(t, l.Recent(50), 6)
	assert.Empty(t, l.Recent(0))
}

func TestHistoryReturnsCopy(t *testing.T) {
	l := newTestLedger(t, "100", &mockStore{})
	_, err := l.Apply(context.Background(), sendPending("1"))
	require.NoError(t, err)

	h := l.History("")
	h[0].Title = "tampered"

	assert.NotEqual(t, "tampered", l.History("")[0].Title)
}

func TestNew_SeedsKnownIDs(t *testing.T) {
	snap := domain.Snapshot{
		Account:      domain.DefaultAccount(),
		Transactions: []domain.TransactionRecord{{ID: "TXNAAAAAAAAA", Type: domain.TransactionTypeSend}},
	}
	ids := []string{"TXNAAAAAAAAA", "TXNCCCCCCCCC"}
	next := 0
	l := New(snap, &mockStore{}, WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))

	rec, err := l.Apply(context.Background(), sendPending("1"))
	require.NoError(t, err)
	assert.Equal(t, "TXNCCCCCCCCC", rec.ID)
}

func TestApply_Concurrent(t *testing.T) {
	l := newTestLedger(t, "1000", &mockStore{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Apply(ctx, sendPending("10"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, l.Balance().Equal(decimal.NewFromInt(500)), "balance: %s", l.Balance())
	assert.Len(t, l.History(""), 50)
}
