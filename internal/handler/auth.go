package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/josh-kwaku/pocket-wallet/internal/auth"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
	"github.com/josh-kwaku/pocket-wallet/internal/present"
	"github.com/josh-kwaku/pocket-wallet/internal/service"
)

type sessionService interface {
	Login(ctx context.Context, pin string) (*service.Session, error)
	Logout(ctx context.Context)
	PINLockedUntil() time.Time
}

type AuthHandler struct {
	sessions sessionService
}

func NewAuthHandler(sessions sessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginRequest struct {
	PIN string `json:"pin"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PIN == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Account   accountDTO `json:"account"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondAppError(w, ErrFillRequired, fields)
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.PIN)
	if err != nil {
		respondPINError(w, h.sessions, err)
		return
	}

	logging.FromContext(r.Context()).Info("login succeeded", "session_id", sess.ID)
	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC(),
		Account:   toAccountDTO(sess.Account),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		logging.FromContext(r.Context()).Info("logout requested", "phone", claims.Phone)
	}
	h.sessions.Logout(r.Context())
	RespondSuccess(w, http.StatusOK, map[string]string{"message": present.MessageLoggedOut})
}
