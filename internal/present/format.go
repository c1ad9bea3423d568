package present

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

const (
	CurrencySymbol = "৳"
	DateLayout     = "02 Jan 2006 03:04 PM"
)

const (
	MessageFillRequired      = "Please fill all required fields"
	MessageInsufficient      = "Insufficient balance"
	MessageIncorrectPIN      = "Incorrect PIN"
	MessagePINLocked         = "Too many incorrect attempts, try again later"
	MessageSuccess           = "Transaction successful!"
	MessageLoggedOut         = "Logged out successfully"
	MessageDurabilityAtRisk  = "Transaction applied but could not be saved"
	MessageConfirmInProgress = "A transaction is already being processed"
)

// Money formats an unsigned amount as "৳1234.50".
func Money(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

// SignedMoney prefixes credits with "+" and debits with "-".
func SignedMoney(d decimal.Decimal) string {
	switch {
	case d.IsPositive():
		return "+" + Money(d)
	case d.IsNegative():
		return "-" + Money(d.Abs())
	default:
		return Money(d)
	}
}

type Icon struct {
	Glyph string
	Class string
}

var icons = map[domain.TransactionType]Icon{
	domain.TransactionTypeSend:     {Glyph: "↑", Class: "send"},
	domain.TransactionTypeReceive:  {Glyph: "↓", Class: "receive"},
	domain.TransactionTypeCashOut:  {Glyph: "💵", Class: "send"},
	domain.TransactionTypeRecharge: {Glyph: "📱", Class: "recharge"},
	domain.TransactionTypePayment:  {Glyph: "🛒", Class: "send"},
	domain.TransactionTypeAddMoney: {Glyph: "➕", Class: "receive"},
}

var defaultIcon = Icon{Glyph: "•"}

func IconFor(t domain.TransactionType) Icon {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return defaultIcon
}

type Record struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Icon          string `json:"icon"`
	IconClass     string `json:"icon_class"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	AmountClass   string `json:"amount_class"`
	Fee           string `json:"fee"`
	Date          string `json:"date"`
	Timestamp     int64  `json:"timestamp"`
}

// Formatter renders records in a fixed display timezone.
type Formatter struct {
	loc *time.Location
}

func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{loc: loc}
}

func (f *Formatter) Date(t time.Time) string {
	return t.In(f.loc).Format(DateLayout)
}

func (f *Formatter) Record(r domain.TransactionRecord) Record {
	icon := IconFor(r.Type)
	class := "debit"
	if r.IsCredit() {
		class = "credit"
	}

	date := r.Date
	if date == "" {
		date = f.Date(r.Timestamp)
	}

	return Record{
		ID:            r.ID,
		Type:          string(r.Type),
		Title:         r.Title,
		Icon:          icon.Glyph,
		IconClass:     icon.Class,
		Amount:        r.Amount.StringFixed(2),
		AmountDisplay: SignedMoney(r.Amount),
		AmountClass:   class,
		Fee:           r.Fee.StringFixed(2),
		Date:          date,
		Timestamp:     r.Timestamp.UnixMilli(),
	}
}

func (f *Formatter) Records(recs []domain.TransactionRecord) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = f.Record(r)
	}
	return out
}
