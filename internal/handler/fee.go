package handler

import (
	"net/http"

	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
	"github.com/josh-kwaku/pocket-wallet/internal/service"
)

type feeQuoter interface {
	CashOutFee(amount string) (*service.FeeQuote, error)
}

type FeeHandler struct {
	fees feeQuoter
}

func NewFeeHandler(fees feeQuoter) *FeeHandler {
	return &FeeHandler{fees: fees}
}

type feeQuoteResponse struct {
	Rate         string `json:"rate"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee"`
	FeeDisplay   string `json:"fee_display"`
	Total        string `json:"total"`
	TotalDisplay string `json:"total_display"`
}

func (h *FeeHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	q, err := h.fees.CashOutFee(r.URL.Query().Get("amount"))
	if err != nil {
		logging.FromContext(r.Context()).Debug("fee quote rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, feeQuoteResponse{
		Rate:         q.Rate.String(),
		Amount:       q.Amount.StringFixed(2),
		Fee:          q.Fee.String(),
		FeeDisplay:   present.Money(q.Fee),
		Total:        q.Total.String(),
		TotalDisplay: present.Money(q.Total),
	})
}
