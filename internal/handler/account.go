package handler

import (
	"net/http"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
)

type profileReader interface {
	Profile() domain.Account
}

type AccountHandler struct {
	accounts profileReader
}

func NewAccountHandler(accounts profileReader) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// accountDTO never carries the PIN.
type accountDTO struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Verified       bool   `json:"verified"`
	Balance        string `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

func toAccountDTO(a domain.Account) accountDTO {
	return accountDTO{
		Name:           a.Name,
		Phone:          a.Phone,
		Verified:       a.Verified,
		Balance:        a.Balance.StringFixed(2),
		BalanceDisplay: present.Money(a.Balance),
	}
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, toAccountDTO(h.accounts.Profile()))
}
