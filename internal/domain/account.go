package domain

import "github.com/shopspring/decimal"

type Account struct {
	Name     string
	Phone    string
	PIN      string
	Balance  decimal.Decimal
	Verified bool
}

// DefaultAccount is the demo profile a fresh wallet starts with.
func DefaultAccount() Account {
	return Account{
		Name:     "Demo User",
		Phone:    "01712345678",
		PIN:      "1234",
		Balance:  decimal.RequireFromString("5420.50"),
		Verified: true,
	}
}
