package service

import (
	"context"
	"log/slog"
	"time"
)

type dirtyFlusher interface {
	Flush(ctx context.Context) (bool, error)
}

// Flusher retries saving a ledger whose last commit could not be persisted.
type Flusher struct {
	ledger   dirtyFlusher
	logger   *slog.Logger
	interval time.Duration
}

func NewFlusher(ledger dirtyFlusher, logger *slog.Logger, interval time.Duration) *Flusher {
	return &Flusher{ledger: ledger, logger: logger, interval: interval}
}

func (f *Flusher) Start(ctx context.Context) {
	f.logger.Info("ledger flusher started", "interval", f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.poll(context.WithoutCancel(ctx))
			f.logger.Info("ledger flusher stopped")
			return
		case <-ticker.C:
			f.poll(ctx)
		}
	}
}

func (f *Flusher) poll(ctx context.Context) {
	flushed, err := f.ledger.Flush(ctx)
	if err != nil {
		f.logger.Error("ledger still not persisted", "error", err)
		return
	}
	if flushed {
		f.logger.Info("ledger persisted after earlier failure")
	}
}
