package transaction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/fee"
	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
)

const (
	// currencyScale is the number of fractional digits an amount may carry.
	currencyScale = 2
	// maxParseScale bounds the exponent of a parsed amount in either
	// direction; "1.500" is accepted, "1e-30" is not.
	maxParseScale = 18
)

// maxAmount is the largest single transaction amount accepted.
var maxAmount = decimal.New(1, 12)

type SendMoneyRequest struct {
	Recipient string
	Amount    string
	Reference string
}

type CashOutRequest struct {
	Agent  string
	Amount string
}

type RechargeRequest struct {
	Operator string
	Number   string
	Amount   string
}

type PaymentRequest struct {
	Merchant string
	Invoice  string
	Amount   string
}

type AddMoneyRequest struct {
	Source string
	Amount string
}

// Validator turns raw form input into pending transactions. It never touches
// the balance, it only reads it.
type Validator struct {
	fees *fee.Policy
}

func NewValidator(fees *fee.Policy) *Validator {
	return &Validator{fees: fees}
}

func (v *Validator) SendMoney(req SendMoneyRequest, balance decimal.Decimal) (*domain.PendingTransaction, error) {
	recipient := strings.TrimSpace(req.Recipient)
	if err := requireFields(field{"recipient", recipient}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := v.checkFunds(domain.TransactionTypeSend, amount, balance); err != nil {
		return nil, err
	}

	return &domain.PendingTransaction{
		Type:   domain.TransactionTypeSend,
		Title:  fmt.Sprintf("Send Money to %s", recipient),
		Amount: amount.Neg(),
		Fee:    decimal.Zero,
		Metadata: domain.Metadata{
			Recipient: recipient,
			Reference: strings.TrimSpace(req.Reference),
		},
	}, nil
}

func (v *Validator) CashOut(req CashOutRequest, balance decimal.Decimal) (*domain.PendingTransaction, error) {
	agent := strings.TrimSpace(req.Agent)
	if err := requireFields(field{"agent", agent}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := v.checkFunds(domain.TransactionTypeCashOut, amount, balance); err != nil {
		return nil, err
	}

	total := v.fees.Total(domain.TransactionTypeCashOut, amount)
	return &domain.PendingTransaction{
		Type:     domain.TransactionTypeCashOut,
		Title:    fmt.Sprintf("Cash Out from %s", agent),
		Amount:   total.Neg(),
		Fee:      v.fees.Compute(domain.TransactionTypeCashOut, amount),
		Metadata: domain.Metadata{Agent: agent},
	}, nil
}

func (v *Validator) Recharge(req RechargeRequest, balance decimal.Decimal) (*domain.PendingTransaction, error) {
	operator := strings.TrimSpace(req.Operator)
	number := strings.TrimSpace(req.Number)
	if err := requireFields(field{"operator", operator}, field{"number", number}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := v.checkFunds(domain.TransactionTypeRecharge, amount, balance); err != nil {
		return nil, err
	}

	return &domain.PendingTransaction{
		Type:     domain.TransactionTypeRecharge,
		Title:    fmt.Sprintf("%s Recharge - %s", operator, number),
		Amount:   amount.Neg(),
		Fee:      decimal.Zero,
		Metadata: domain.Metadata{Operator: operator, Number: number},
	}, nil
}

func (v *Validator) Payment(req PaymentRequest, balance decimal.Decimal) (*domain.PendingTransaction, error) {
	merchant := strings.TrimSpace(req.Merchant)
	invoice := strings.TrimSpace(req.Invoice)
	if err := requireFields(field{"merchant", merchant}, field{"invoice", invoice}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := v.checkFunds(domain.TransactionTypePayment, amount, balance); err != nil {
		return nil, err
	}

	return &domain.PendingTransaction{
		Type:     domain.TransactionTypePayment,
		Title:    fmt.Sprintf("Payment to %s", merchant),
		Amount:   amount.Neg(),
		Fee:      decimal.Zero,
		Metadata: domain.Metadata{Merchant: merchant, Invoice: invoice},
	}, nil
}

// AddMoney is credit-only, so the balance is never consulted.
func (v *Validator) AddMoney(req AddMoneyRequest) (*domain.PendingTransaction, error) {
	source := strings.TrimSpace(req.Source)
	if err := requireFields(field{"source", source}); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	return &domain.PendingTransaction{
		Type:     domain.TransactionTypeAddMoney,
		Title:    fmt.Sprintf("Add Money from %s", source),
		Amount:   amount,
		Fee:      decimal.Zero,
		Metadata: domain.Metadata{Source: source},
	}, nil
}

func (v *Validator) checkFunds(t domain.TransactionType, amount, balance decimal.Decimal) error {
	if v.fees.Total(t, amount).GreaterThan(balance) {
		return &domain.ValidationError{Field: "amount", Err: domain.ErrInsufficientBalance}
	}
	return nil
}

// SufficientFunds re-checks a staged debit against the balance at commit time.
// Credits always pass.
func SufficientFunds(p domain.PendingTransaction) ledger.Precondition {
	return func(account domain.Account) error {
		if !p.Type.IsDebit() {
			return nil
		}
		if p.Amount.Neg().GreaterThan(account.Balance) {
			return &domain.ValidationError{Field: "amount", Err: domain.ErrInsufficientBalance}
		}
		return nil
	}
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return &domain.ValidationError{Field: f.name, Err: domain.ErrMissingField}
		}
	}
	return nil
}

// ParseAmount trims and parses a strictly positive amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &domain.ValidationError{Field: "amount", Err: domain.ErrMissingField}
	}
	invalid := &domain.ValidationError{Field: "amount", Err: domain.ErrInvalidAmount}

	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, invalid
	}
	// Exponent bounds come first so the comparisons below never rescale a
	// pathological value like 1e-400000000.
	if exp := amount.Exponent(); exp < -maxParseScale || exp > maxParseScale {
		return decimal.Zero, invalid
	}
	if !amount.Equal(amount.Truncate(currencyScale)) || amount.GreaterThan(maxAmount) {
		return decimal.Zero, invalid
	}
	return amount, nil
}
