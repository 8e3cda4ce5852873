package core

import (
	"strings"
	"time"
)

const (
	PlanDraft      PlanStatus = "draft"
	PlanValidated  PlanStatus = "validated"
	PlanReforecast PlanStatus = "reforecast"
)

const (
	ReservationActive    ReservationStatus = "active"
	ReservationUtilized  ReservationStatus = "utilized"
	ReservationCancelled ReservationStatus = "cancelled"
)

type (
	PlanStatus        string
	ReservationStatus string

	FiscalPeriod struct {
		Start string `json:"start" toml:"start"` // YYYY-MM-DD
		End   string `json:"end" toml:"end"`
	}

	// Category is a budget line within a plan.
	Category struct {
		ID        string  `json:"id" toml:"id"`
		Label     string  `json:"label" toml:"label"`
		Owner     string  `json:"owner" toml:"owner"`
		Allocated float64 `json:"allocated" toml:"allocated"`
		Utilized  float64 `json:"utilized" toml:"utilized"`
		Reserved  float64 `json:"reserved" toml:"reserved"`
		Notes     string  `json:"notes,omitempty" toml:"notes"`
	}

	BudgetPlan struct {
		ID             string       `json:"id" toml:"id"`
		OrganizationID string       `json:"organizationId" toml:"organization_id"`
		Name           string       `json:"name" toml:"name"`
		Owner          string       `json:"owner" toml:"owner"`
		FiscalPeriod   FiscalPeriod `json:"fiscalPeriod" toml:"fiscal_period"`
		TotalBudget    float64      `json:"totalBudget" toml:"total_budget"`
		Currency       string       `json:"currency" toml:"currency"`
		Status         PlanStatus   `json:"status" toml:"status"`
		Categories     []Category   `json:"categories" toml:"categories"`
		Objectives     []string     `json:"objectives" toml:"objectives"`
		UpdatedAt      time.Time    `json:"updatedAt" toml:"updated_at"`
	}

	// Reservation is a soft hold of funds against a category.
	Reservation struct {
		ID                 string            `json:"id"`
		PlanID             string            `json:"planId"`
		CategoryID         string            `json:"categoryId"`
		Amount             float64           `json:"amount"`
		Purpose            string            `json:"purpose"`
		ReservedBy         string            `json:"reservedBy"`
		ReservedDate       time.Time         `json:"reservedDate"`
		Status             ReservationStatus `json:"status"`
		UtilizedDate       *time.Time        `json:"utilizedDate,omitempty"`
		CancellationReason string            `json:"cancellationReason,omitempty"`
		Notes              string            `json:"notes,omitempty"`
	}

	// ReservationForm carries the raw user input for a new reservation.
	ReservationForm struct {
		CategoryID string `json:"categoryId"`
		Amount     string `json:"amount"`
		Purpose    string `json:"purpose"`
		Notes      string `json:"notes,omitempty"`
	}

	Conversion struct {
		Vendor          string `json:"vendor"`
		Date            string `json:"date"`
		TransactionType string `json:"transactionType"`
	}

	Cancellation struct {
		Reason string `json:"reason"`
	}
)

func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanDraft, PlanValidated, PlanReforecast:
		return true
	}
	return false
}

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationActive, ReservationUtilized, ReservationCancelled:
		return true
	}
	return false
}

// IsDraft reports whether the plan's categories may still be edited.
func (p BudgetPlan) IsDraft() bool {
	return p.Status == PlanDraft
}

// FindCategory returns a copy of the category with the given id.
func (p BudgetPlan) FindCategory(id string) (Category, bool) {
	for _, c := range p.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryLabel resolves a category id to its label, tolerating dangling ids.
func (p BudgetPlan) CategoryLabel(id string) string {
	if c, ok := p.FindCategory(id); ok {
		return c.Label
	}
	return UnknownCategoryLabel
}

// Clone returns a deep copy so callers cannot mutate shared reference data.
func (p BudgetPlan) Clone() BudgetPlan {
	out := p
	out.Categories = append([]Category(nil), p.Categories...)
	out.Objectives = append([]string(nil), p.Objectives...)
	return out
}

// UnknownCategoryLabel is displayed for reservations whose category no longer exists.
const UnknownCategoryLabel = "Catégorie inconnue"

// Terminal reports whether no further transition is possible.
func (r Reservation) Terminal() bool {
	return r.Status == ReservationUtilized || r.Status == ReservationCancelled
}

// Clone returns a copy that does not share the UtilizedDate pointer.
func (r Reservation) Clone() Reservation {
	out := r
	if r.UtilizedDate != nil {
		t := *r.UtilizedDate
		out.UtilizedDate = &t
	}
	return out
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
