package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type dirtyReporter interface {
	Dirty() bool
}

type HealthHandler struct {
	store  pinger
	ledger dirtyReporter
}

func NewHealthHandler(store pinger, ledger dirtyReporter) *HealthHandler {
	return &HealthHandler{store: store, ledger: ledger}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports the store as down when it cannot be reached and the
// ledger as degraded while a commit is waiting to be persisted.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	ledgerStatus := "ok"
	httpStatus := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed: store unreachable", "error", err)
		storeStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}
	if h.ledger.Dirty() {
		ledgerStatus = "unsaved"
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	} else if ledgerStatus != "ok" {
		overallStatus = "degraded"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"store":  storeStatus,
			"ledger": ledgerStatus,
		},
	})
}
