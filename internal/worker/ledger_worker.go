// Package worker turns queued reservation events into ledger rows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"budgetcare/internal/core"
	"budgetcare/internal/log"
	"budgetcare/internal/ports"
)

var ErrEmptyEvent = errors.New("event has no reservation id")

// Consumer delivers events to a handler until ctx is done.
type Consumer interface {
	ConsumeReservationEvents(ctx context.Context, handler func(context.Context, core.ReservationEvent) error) error
}

// LedgerWorker appends every consumed event to the ledger. A failed append
// is returned to the consumer so the message is requeued.
type LedgerWorker struct {
	ledger ports.LedgerWriter
	logger *log.Logger

	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

type Metrics struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

func NewLedgerWorker(ledger ports.LedgerWriter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerWorker{ledger: ledger, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run consumes from c until ctx is cancelled.
func (w *LedgerWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Ledger worker started")
	err := c.ConsumeReservationEvents(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Ledger worker stopped", "processed", w.processed.Load(), "failed", w.failed.Load())
		return nil
	}
	return err
}

// HandleEvent writes one event. Events without a reservation id are logged
// and acknowledged so they do not loop in the queue.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev core.ReservationEvent) error {
	if ev.Reservation.ID == "" {
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Skipping event",
			log.FieldEvent, ev.Type, log.FieldError, ErrEmptyEvent, log.FieldErrorType, log.ErrorTypeValidation)
		return nil
	}

	ref, err := w.ledger.AppendEvent(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("append %s for %s: %w", ev.Type, ev.Reservation.ID, err)
	}
	w.processed.Add(1)

	w.logger.InfoContext(ctx, "Reservation event recorded",
		log.FieldOperation, log.OpAppend,
		log.FieldEvent, ev.Type,
		log.FieldReservationID, ev.Reservation.ID,
		log.FieldPlanID, ev.Reservation.PlanID,
		log.FieldLedgerRef, ref,
	)
	return nil
}

func (w *LedgerWorker) Metrics() Metrics {
	return Metrics{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Skipped:   w.skipped.Load(),
	}
}
