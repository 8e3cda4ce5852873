// Package export renders a plan's reservations as CSV.
//
// The format is fixed-field: text columns are always wrapped in double
// quotes and their content is written as-is. Quotes or newlines inside a
// field are not escaped, so the output is not strict RFC 4180.
package export

import (
	"strconv"
	"strings"
	"time"

	"budgetcare/internal/core"
)

// Prose results returned instead of a document. Callers display them as-is.
const (
	NoReservationsMessage = "Aucune réservation trouvée pour ce plan."
	PlanNotFoundMessage   = "Plan budgétaire non trouvé."
)

var header = []string{
	"ID",
	"Catégorie",
	"Montant",
	"Devise",
	"Purpose",
	"Réservé par",
	"Date réservation",
	"Statut",
	"Date utilisation",
	"Raison annulation",
	"Notes",
}

// PlanReservations renders reservations, which must all belong to plan.
// plan is nil when the plan id is unknown. An empty reservation list wins
// over a missing plan.
func PlanReservations(plan *core.BudgetPlan, reservations []core.Reservation) string {
	if len(reservations) == 0 {
		return NoReservationsMessage
	}
	if plan == nil {
		return PlanNotFoundMessage
	}

	rows := make([]string, 0, len(reservations)+1)
	rows = append(rows, strings.Join(header, ","))
	for _, r := range reservations {
		fields := Fields(r, plan.CategoryLabel(r.CategoryID), plan.Currency)
		for _, i := range textColumns {
			fields[i] = quote(fields[i])
		}
		rows = append(rows, strings.Join(fields, ","))
	}
	return strings.Join(rows, "\n")
}

// textColumns are the free-text columns wrapped in quotes.
var textColumns = []int{1, 4, 5, 9, 10}

// Columns returns a copy of the export header.
func Columns() []string {
	return append([]string(nil), header...)
}

// Fields returns the raw, unquoted column values for one reservation.
func Fields(r core.Reservation, categoryLabel, currency string) []string {
	utilized := ""
	if r.UtilizedDate != nil {
		utilized = core.FormatDisplayDate(*r.UtilizedDate)
	}
	return []string{
		r.ID,
		categoryLabel,
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		currency,
		r.Purpose,
		r.ReservedBy,
		core.FormatDisplayDate(r.ReservedDate),
		string(r.Status),
		utilized,
		r.CancellationReason,
		r.Notes,
	}
}

// IsDocument reports whether out is CSV rather than one of the prose results.
func IsDocument(out string) bool {
	return out != NoReservationsMessage && out != PlanNotFoundMessage
}

// FileName is the suggested download name for a plan export.
func FileName(plan *core.BudgetPlan, now time.Time) string {
	name := "plan"
	if plan != nil && plan.Name != "" {
		name = plan.Name
	}
	return "reservations-" + name + "-" + now.UTC().Format(time.DateOnly) + ".csv"
}

func quote(s string) string {
	return `"` + s + `"`
}
