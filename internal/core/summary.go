package core

import "strings"

// Summary aggregates the reservations of one category.
type Summary struct {
	TotalReserved   float64 `json:"totalReserved"`
	ActiveAmount    float64 `json:"activeAmount"`
	UtilizedAmount  float64 `json:"utilizedAmount"`
	CancelledAmount float64 `json:"cancelledAmount"`
}

// Committed is the amount that still counts against the category:
// active holds plus converted reservations.
func (s Summary) Committed() float64 {
	return s.ActiveAmount + s.UtilizedAmount
}

// Summarize totals the reservations matching planID and categoryID.
// TotalReserved includes every status, cancelled included.
func Summarize(rs []Reservation, planID, categoryID string) Summary {
	var s Summary
	for _, r := range rs {
		if r.PlanID != planID || r.CategoryID != categoryID {
			continue
		}
		s.TotalReserved += r.Amount
		switch r.Status {
		case ReservationActive:
			s.ActiveAmount += r.Amount
		case ReservationUtilized:
			s.UtilizedAmount += r.Amount
		case ReservationCancelled:
			s.CancelledAmount += r.Amount
		}
	}
	return s
}

// Available is allocated minus utilized minus committed reservations.
// The category's static Reserved figure is informational and not subtracted.
// The result can be negative when the static figures are already overspent.
func Available(c Category, s Summary) float64 {
	return c.Allocated - c.Utilized - s.Committed()
}

// PlanStatistics is the plan-wide roll-up shown on the reservations page.
type PlanStatistics struct {
	TotalReservations int     `json:"totalReservations"`
	ActiveCount       int     `json:"activeCount"`
	UtilizedCount     int     `json:"utilizedCount"`
	CancelledCount    int     `json:"cancelledCount"`
	ActiveAmount      float64 `json:"activeAmount"`
	UtilizedAmount    float64 `json:"utilizedAmount"`
}

// Statistics counts reservations by status and totals active and utilized amounts.
func Statistics(rs []Reservation) PlanStatistics {
	st := PlanStatistics{TotalReservations: len(rs)}
	for _, r := range rs {
		switch r.Status {
		case ReservationActive:
			st.ActiveCount++
			st.ActiveAmount += r.Amount
		case ReservationUtilized:
			st.UtilizedCount++
			st.UtilizedAmount += r.Amount
		case ReservationCancelled:
			st.CancelledCount++
		}
	}
	return st
}

// Filter selects reservations. Zero fields match everything.
// Search is matched case-insensitively against purpose, reservedBy and notes.
type Filter struct {
	PlanID     string
	CategoryID string
	Status     ReservationStatus
	Search     string
}

func (f Filter) Match(r Reservation) bool {
	if f.PlanID != "" && r.PlanID != f.PlanID {
		return false
	}
	if f.CategoryID != "" && r.CategoryID != f.CategoryID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	q := strings.ToLower(trimmed(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{r.Purpose, r.ReservedBy, r.Notes} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Apply returns the reservations matching f, preserving order.
func (f Filter) Apply(rs []Reservation) []Reservation {
	out := make([]Reservation, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
