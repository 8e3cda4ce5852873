package core

import "time"

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationConverted EventType = "reservation.converted"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationDeleted   EventType = "reservation.deleted"
)

// ReservationEvent describes a committed reservation change. It carries the
// plan context so consumers need no access to the plan store.
type ReservationEvent struct {
	Type          EventType   `json:"type"`
	Reservation   Reservation `json:"reservation"`
	PlanName      string      `json:"planName"`
	CategoryLabel string      `json:"categoryLabel"`
	Currency      string      `json:"currency"`
	OccurredAt    time.Time   `json:"occurredAt"`
}

// NewReservationEvent fills the plan context from plan, which may be nil for
// reservations whose plan no longer exists.
func NewReservationEvent(t EventType, r Reservation, plan *BudgetPlan, now time.Time) ReservationEvent {
	ev := ReservationEvent{
		Type:          t,
		Reservation:   r.Clone(),
		CategoryLabel: UnknownCategoryLabel,
		OccurredAt:    now.UTC(),
	}
	if plan != nil {
		ev.PlanName = plan.Name
		ev.Currency = plan.Currency
		ev.CategoryLabel = plan.CategoryLabel(r.CategoryID)
	}
	return ev
}
