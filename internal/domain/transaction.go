package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSend     TransactionType = "send"
	TransactionTypeReceive  TransactionType = "receive"
	TransactionTypeCashOut  TransactionType = "cashout"
	TransactionTypeRecharge TransactionType = "recharge"
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypeAddMoney TransactionType = "addmoney"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSend, TransactionTypeReceive, TransactionTypeCashOut,
		TransactionTypeRecharge, TransactionTypePayment, TransactionTypeAddMoney:
		return true
	}
	return false
}

// IsDebit reports whether the type moves money out of the wallet.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TransactionTypeSend, TransactionTypeCashOut, TransactionTypeRecharge, TransactionTypePayment:
		return true
	}
	return false
}

// Metadata holds the per-type fields. Only the fields belonging to the
// record's type are ever set.
type Metadata struct {
	Recipient string
	Reference string
	Agent     string
	Operator  string
	Number    string
	Merchant  string
	Invoice   string
	Source    string
}

type PendingTransaction struct {
	Type     TransactionType
	Title    string
	Amount   decimal.Decimal
	Fee      decimal.Decimal
	Metadata Metadata
}

func (p PendingTransaction) IsCredit() bool {
	return p.Amount.IsPositive()
}

type TransactionRecord struct {
	ID        string
	Type      TransactionType
	Title     string
	Amount    decimal.Decimal
	Fee       decimal.Decimal
	Timestamp time.Time
	Date      string
	Metadata  Metadata
}

func (r TransactionRecord) IsCredit() bool {
	return r.Amount.IsPositive()
}

// Snapshot is the unit that gets persisted: the account plus its history,
// most recent first.
type Snapshot struct {
	Account      Account
	Transactions []TransactionRecord
}
