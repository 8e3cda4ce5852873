// Package ports declares the interfaces between the reservation service and
// its adapters.
package ports

import (
	"context"

	"budgetcare/internal/core"
)

type (
	// ReservationRepository stores reservations in insertion order.
	// Find, Update and Delete report core.ErrReservationNotFound for unknown ids.
	ReservationRepository interface {
		List(ctx context.Context) ([]core.Reservation, error)
		Find(ctx context.Context, id string) (core.Reservation, error)
		Insert(ctx context.Context, r core.Reservation) error
		Update(ctx context.Context, r core.Reservation) error
		Delete(ctx context.Context, id string) error
	}

	// PlanReader serves plan reference data. Per-plan lookups report
	// core.ErrPlanNotFound for unknown ids.
	PlanReader interface {
		ListPlans(ctx context.Context) ([]core.BudgetPlan, error)
		FindPlan(ctx context.Context, id string) (core.BudgetPlan, error)
		Revisions(ctx context.Context, planID string) ([]core.PlanRevision, error)
		Executions(ctx context.Context, planID string) ([]core.ExecutionEntry, error)
	}

	// EventPublisher fans reservation changes out to other processes.
	EventPublisher interface {
		PublishReservationEvent(ctx context.Context, ev core.ReservationEvent) error
	}

	// LedgerWriter appends reservation events to an external ledger.
	LedgerWriter interface {
		AppendEvent(ctx context.Context, ev core.ReservationEvent) (rowRef string, err error)
	}
)
