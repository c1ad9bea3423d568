package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
)

type sample struct {
	id       string
	typ      domain.TransactionType
	title    string
	amount   string
	daysAgo  int
	metadata domain.Metadata
}

var samples = []sample{
	{"TXN001", domain.TransactionTypeReceive, "Received from 01812345678", "1500.00", 3, domain.Metadata{}},
	{"TXN002", domain.TransactionTypeSend, "Send Money to 01912345678", "-850.00", 4, domain.Metadata{Recipient: "01912345678"}},
	{"TXN003", domain.TransactionTypeRecharge, "Grameenphone Recharge - 01712345678", "-100.00", 5, domain.Metadata{Operator: "Grameenphone", Number: "01712345678"}},
	{"TXN004", domain.TransactionTypePayment, "Payment to Daraz", "-2350.00", 6, domain.Metadata{Merchant: "Daraz"}},
	{"TXN005", domain.TransactionTypeCashOut, "Cash Out from 01612345678", "-2046.25", 7, domain.Metadata{Agent: "01612345678"}},
	{"TXN006", domain.TransactionTypeAddMoney, "Add Money from Bank Account", "5000.00", 8, domain.Metadata{Source: "Bank Account"}},
	{"TXN007", domain.TransactionTypeSend, "Send Money to 01512345678", "-500.00", 9, domain.Metadata{Recipient: "01512345678"}},
	{"TXN008", domain.TransactionTypePayment, "Payment to FoodPanda", "-680.00", 10, domain.Metadata{Merchant: "FoodPanda"}},
}

// SampleTransactions returns the demo history a new wallet is seeded with,
// most recent first, dated relative to now.
func SampleTransactions(now time.Time, loc *time.Location) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, len(samples))
	for i, s := range samples {
		at := now.Add(-time.Duration(s.daysAgo) * 24 * time.Hour).Truncate(time.Millisecond)
		out[i] = domain.TransactionRecord{
			ID:        s.id,
			Type:      s.typ,
			Title:     s.title,
			Amount:    decimal.RequireFromString(s.amount),
			Fee:       decimal.Zero,
			Timestamp: at,
			Date:      at.In(loc).Format(ledger.DateLayout),
			Metadata:  s.metadata,
		}
	}
	return out
}
