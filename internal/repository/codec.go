package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// The stored layout is compatible with records written by the browser
// client: {"user": {...}, "transactions": [...]}, money as bare JSON numbers
// and timestamps in epoch milliseconds.

type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

type snapshotDoc struct {
	User         userDoc          `json:"user"`
	Transactions []transactionDoc `json:"transactions"`
}

type userDoc struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PIN      string `json:"pin"`
	Balance  number `json:"balance"`
	Verified bool   `json:"verified"`
}

type transactionDoc struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Amount    number  `json:"amount"`
	Fee       *number `json:"fee,omitempty"`
	Date      string  `json:"date"`
	Timestamp int64   `json:"timestamp"`

	Recipient string `json:"recipient,omitempty"`
	Reference string `json:"reference,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Operator  string `json:"operator,omitempty"`
	Number    string `json:"number,omitempty"`
	Merchant  string `json:"merchant,omitempty"`
	Invoice   string `json:"invoice,omitempty"`
	Source    string `json:"source,omitempty"`
}

func EncodeSnapshot(snap *domain.Snapshot) ([]byte, error) {
	doc := snapshotDoc{
		User: userDoc{
			Name:     snap.Account.Name,
			Phone:    snap.Account.Phone,
			PIN:      snap.Account.PIN,
			Balance:  number(snap.Account.Balance),
			Verified: snap.Account.Verified,
		},
		Transactions: make([]transactionDoc, len(snap.Transactions)),
	}
	for i, rec := range snap.Transactions {
		doc.Transactions[i] = toTransactionDoc(rec)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("EncodeSnapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a stored record. User fields absent from the record
// keep their value from defaults.
func DecodeSnapshot(data []byte, defaults domain.Account) (*domain.Snapshot, error) {
	doc := snapshotDoc{
		User: userDoc{
			Name:     defaults.Name,
			Phone:    defaults.Phone,
			PIN:      defaults.PIN,
			Balance:  number(defaults.Balance),
			Verified: defaults.Verified,
		},
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("DecodeSnapshot: %w", err)
	}

	snap := &domain.Snapshot{
		Account: domain.Account{
			Name:     doc.User.Name,
			Phone:    doc.User.Phone,
			PIN:      doc.User.PIN,
			Balance:  decimal.Decimal(doc.User.Balance),
			Verified: doc.User.Verified,
		},
		Transactions: make([]domain.TransactionRecord, len(doc.Transactions)),
	}
	for i, t := range doc.Transactions {
		snap.Transactions[i] = t.toRecord()
	}
	return snap, nil
}

func toTransactionDoc(rec domain.TransactionRecord) transactionDoc {
	doc := transactionDoc{
		ID:        rec.ID,
		Type:      string(rec.Type),
		Title:     rec.Title,
		Amount:    number(rec.Amount),
		Date:      rec.Date,
		Timestamp: rec.Timestamp.UnixMilli(),
		Recipient: rec.Metadata.Recipient,
		Reference: rec.Metadata.Reference,
		Agent:     rec.Metadata.Agent,
		Operator:  rec.Metadata.Operator,
		Number:    rec.Metadata.Number,
		Merchant:  rec.Metadata.Merchant,
		Invoice:   rec.Metadata.Invoice,
		Source:    rec.Metadata.Source,
	}
	if !rec.Fee.IsZero() {
		fee := number(rec.Fee)
		doc.Fee = &fee
	}
	return doc
}

func (t transactionDoc) toRecord() domain.TransactionRecord {
	rec := domain.TransactionRecord{
		ID:        t.ID,
		Type:      domain.TransactionType(t.Type),
		Title:     t.Title,
		Amount:    decimal.Decimal(t.Amount),
		Fee:       decimal.Zero,
		Timestamp: time.UnixMilli(t.Timestamp),
		Date:      t.Date,
		Metadata: domain.Metadata{
			Recipient: t.Recipient,
			Reference: t.Reference,
			Agent:     t.Agent,
			Operator:  t.Operator,
			Number:    t.Number,
			Merchant:  t.Merchant,
			Invoice:   t.Invoice,
			Source:    t.Source,
		},
	}
	if t.Fee != nil {
		rec.Fee = decimal.Decimal(*t.Fee)
	}
	return rec
}
