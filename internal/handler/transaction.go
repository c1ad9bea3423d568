package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
	"github.com/josh-kwaku/pocket-wallet/internal/service/transaction"
)

const recentLimit = 5

type walletService interface {
	SendMoney(ctx context.Context, req transaction.SendMoneyRequest) (*domain.PendingTransaction, error)
	CashOut(ctx context.Context, req transaction.CashOutRequest) (*domain.PendingTransaction, error)
	Recharge(ctx context.Context, req transaction.RechargeRequest) (*domain.PendingTransaction, error)
	Payment(ctx context.Context, req transaction.PaymentRequest) (*domain.PendingTransaction, error)
	AddMoney(ctx context.Context, req transaction.AddMoneyRequest) (*domain.PendingTransaction, error)
	Pending() *domain.PendingTransaction
	Confirm(ctx context.Context, pin string) (*domain.TransactionRecord, error)
	Discard(ctx context.Context)
	History(filter string) ([]domain.TransactionRecord, error)
	Recent(n int) []domain.TransactionRecord
	Profile() domain.Account
	PINLockedUntil() time.Time
}

type TransactionHandler struct {
	wallet walletService
	format *present.Formatter
}

func NewTransactionHandler(wallet walletService, format *present.Formatter) *TransactionHandler {
	return &TransactionHandler{wallet: wallet, format: format}
}

type sendMoneyRequest struct {
	Recipient string     `json:"recipient"`
	Amount    flexString `json:"amount"`
	Reference string     `json:"reference"`
}

type cashOutRequest struct {
	Agent  string     `json:"agent"`
	Amount flexString `json:"amount"`
}

type rechargeRequest struct {
	Operator string     `json:"operator"`
	Number   string     `json:"number"`
	Amount   flexString `json:"amount"`
}

type paymentRequest struct {
	Merchant string     `json:"merchant"`
	Invoice  string     `json:"invoice"`
	Amount   flexString `json:"amount"`
}

type addMoneyRequest struct {
	Source string     `json:"source"`
	Amount flexString `json:"amount"`
}

type confirmRequest struct {
	PIN string `json:"pin"`
}

type pendingDTO struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Fee           string `json:"fee"`
	FeeDisplay    string `json:"fee_display"`
	Recipient     string `json:"recipient,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Agent         string `json:"agent,omitempty"`
	Operator      string `json:"operator,omitempty"`
	Number        string `json:"number,omitempty"`
	Merchant      string `json:"merchant,omitempty"`
	Invoice       string `json:"invoice,omitempty"`
	Source        string `json:"source,omitempty"`
}

func toPendingDTO(p *domain.PendingTransaction) *pendingDTO {
	if p == nil {
		return nil
	}
	return &pendingDTO{
		Type:          string(p.Type),
		Title:         p.Title,
		Amount:        p.Amount.StringFixed(2),
		AmountDisplay: present.SignedMoney(p.Amount),
		Fee:           p.Fee.String(),
		FeeDisplay:    present.Money(p.Fee),
		Recipient:     p.Metadata.Recipient,
		Reference:     p.Metadata.Reference,
		Agent:         p.Metadata.Agent,
		Operator:      p.Metadata.Operator,
		Number:        p.Metadata.Number,
		Merchant:      p.Metadata.Merchant,
		Invoice:       p.Metadata.Invoice,
		Source:        p.Metadata.Source,
	}
}

type confirmResponse struct {
	Confirmed        bool            `json:"confirmed"`
	Message          string          `json:"message,omitempty"`
	DurabilityAtRisk bool            `json:"durability_at_risk"`
	Transaction      *present.Record `json:"transaction"`
	Account          accountDTO      `json:"account"`
}

func (h *TransactionHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	var req sendMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	h.respondStaged(w, r)(h.wallet.SendMoney(r.Context(), transaction.SendMoneyRequest{
		Recipient: req.Recipient,
		Amount:    string(req.Amount),
		Reference: req.Reference,
	}))
}

func (h *TransactionHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	var req cashOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	h.respondStaged(w, r)(h.wallet.CashOut(r.Context(), transaction.CashOutRequest{
		Agent:  req.Agent,
		Amount: string(req.Amount),
	}))
}

func (h *TransactionHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	h.respondStaged(w, r)(h.wallet.Recharge(r.Context(), transaction.RechargeRequest{
		Operator: req.Operator,
		Number:   req.Number,
		Amount:   string(req.Amount),
	}))
}

func (h *TransactionHandler) Payment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	h.respondStaged(w, r)(h.wallet.Payment(r.Context(), transaction.PaymentRequest{
		Merchant: req.Merchant,
		Invoice:  req.Invoice,
		Amount:   string(req.Amount),
	}))
}

func (h *TransactionHandler) AddMoney(w http.ResponseWriter, r *http.Request) {
	var req addMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	h.respondStaged(w, r)(h.wallet.AddMoney(r.Context(), transaction.AddMoneyRequest{
		Source: req.Source,
		Amount: string(req.Amount),
	}))
}

func (h *TransactionHandler) respondStaged(w http.ResponseWriter, r *http.Request) func(*domain.PendingTransaction, error) {
	return func(p *domain.PendingTransaction, err error) {
		if err != nil {
			logging.FromContext(r.Context()).Info("transaction rejected", "error", err)
			RespondDomainError(w, err)
			return
		}
		RespondSuccess(w, http.StatusCreated, toPendingDTO(p))
	}
}

func (h *TransactionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, toPendingDTO(h.wallet.Pending()))
}

func (h *TransactionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.wallet.Discard(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.PIN == "" {
		RespondAppError(w, ErrFillRequired, []FieldError{{Field: "pin", Message: "required"}})
		return
	}

	rec, err := h.wallet.Confirm(r.Context(), req.PIN)
	if err != nil && !(rec != nil && errors.Is(err, domain.ErrPersistenceFailure)) {
		respondPINError(w, h.wallet, err)
		return
	}

	resp := confirmResponse{Account: toAccountDTO(h.wallet.Profile())}
	if rec != nil {
		view := h.format.Record(*rec)
		resp.Confirmed = true
		resp.Message = present.MessageSuccess
		resp.Transaction = &view
	}
	if err != nil {
		resp.DurabilityAtRisk = true
		resp.Message = present.MessageDurabilityAtRisk
	}
	RespondSuccess(w, http.StatusOK, resp)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			RespondAppError(w, ErrInvalidRequest, []FieldError{{Field: "limit", Message: "must be a positive integer"}})
			return
		}
		limit = n
	}

	recs, err := h.wallet.History(q.Get("type"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}

	RespondSuccess(w, http.StatusOK, h.format.Records(recs))
}

func (h *TransactionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, h.format.Records(h.wallet.Recent(recentLimit)))
}
