package fee

import (
	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/shopspring/decimal"
)

const DefaultCashOutRate = "0.0185"

// Policy computes the surcharge owed on a transaction. Fees are kept at full
// decimal precision; rounding happens only when they are displayed.
type Policy struct {
	cashOutRate decimal.Decimal
}

func NewPolicy(cashOutRate decimal.Decimal) *Policy {
	return &Policy{cashOutRate: cashOutRate}
}

func DefaultPolicy() *Policy {
	return NewPolicy(decimal.RequireFromString(DefaultCashOutRate))
}

func (p *Policy) CashOutRate() decimal.Decimal {
	return p.cashOutRate
}

func (p *Policy) Compute(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t != domain.TransactionTypeCashOut {
		return decimal.Zero
	}
	return amount.Mul(p.cashOutRate)
}

// Total is the amount plus its fee, i.e. what a debit takes from the balance.
func (p *Policy) Total(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	return amount.Add(p.Compute(t, amount))
}
