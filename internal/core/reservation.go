package core

import (
	"strings"
	"time"
)

const displayDate = "02/01/2006"

// NewReservation builds an active reservation from a validated amount.
// Purpose and notes are trimmed; empty notes are dropped.
func NewReservation(id, planID string, form ReservationForm, amount float64, reservedBy string, now time.Time) Reservation {
	return Reservation{
		ID:           id,
		PlanID:       planID,
		CategoryID:   form.CategoryID,
		Amount:       amount,
		Purpose:      trimmed(form.Purpose),
		ReservedBy:   reservedBy,
		ReservedDate: now.UTC(),
		Status:       ReservationActive,
		Notes:        trimmed(form.Notes),
	}
}

// Convert realizes an active reservation as an expense. The conversion note
// is appended to existing notes. Any status other than active is refused and
// the receiver is returned unchanged.
func (r Reservation) Convert(c Conversion, now time.Time) (Reservation, error) {
	if r.Status != ReservationActive {
		return r, &TransitionError{ID: r.ID, From: r.Status, Op: "convert"}
	}
	out := r.Clone()
	utilized := now.UTC()
	out.Status = ReservationUtilized
	out.UtilizedDate = &utilized

	note := conversionNote(c, now)
	if out.Notes != "" {
		out.Notes = out.Notes + "\n\n" + note
	} else {
		out.Notes = note
	}
	return out, nil
}

func conversionNote(c Conversion, now time.Time) string {
	lines := []string{
		"Converti le: " + now.Format(displayDate),
		"Vendeur: " + trimmed(c.Vendor),
	}
	if d := trimmed(c.Date); d != "" {
		lines = append(lines, "Date transaction: "+d)
	}
	if t := trimmed(c.TransactionType); t != "" {
		lines = append(lines, "Type: "+t)
	}
	return strings.Join(lines, "\n")
}

// Cancel releases an active reservation.
func (r Reservation) Cancel(c Cancellation) (Reservation, error) {
	if r.Status != ReservationActive {
		return r, &TransitionError{ID: r.ID, From: r.Status, Op: "cancel"}
	}
	out := r.Clone()
	out.Status = ReservationCancelled
	out.CancellationReason = trimmed(c.Reason)
	return out, nil
}

// CheckDeletable refuses deletion of active reservations; they must be
// cancelled first.
func (r Reservation) CheckDeletable() error {
	if r.Status == ReservationActive {
		return &TransitionError{ID: r.ID, From: r.Status, Op: "delete"}
	}
	return nil
}

// FormatDisplayDate renders a timestamp as dd/mm/yyyy.
func FormatDisplayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDate)
}
