package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// RecordAt builds a committed record of the given type and signed amount.
func RecordAt(id string, typ domain.TransactionType, amount string, at time.Time) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:        id,
		Type:      typ,
		Title:     string(typ) + " " + id,
		Amount:    decimal.RequireFromString(amount),
		Fee:       decimal.Zero,
		Timestamp: at.Truncate(time.Millisecond),
		Date:      at.Format("02 Jan 2006 03:04 PM"),
	}
}

// Snapshot returns the demo account with the given balance and history.
func Snapshot(balance string, records ...domain.TransactionRecord) *domain.Snapshot {
	acct := domain.DefaultAccount()
	acct.Balance = decimal.RequireFromString(balance)
	return &domain.Snapshot{Account: acct, Transactions: records}
}

func HashedPIN(t *testing.T, pin string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	return string(hash)
}
