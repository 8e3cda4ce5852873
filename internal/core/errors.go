package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrValidationFailed    = errors.New("validation failed")
)

// InsufficientFundsError carries the amount still available so the caller
// can display it.
type InsufficientFundsError struct {
	Requested float64
	Available float64
	Currency  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s %s",
		FormatAmount(e.Requested), FormatAmount(e.Available), e.Currency)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// TransitionError reports an operation refused by the reservation state machine.
type TransitionError struct {
	ID   string
	From ReservationStatus
	Op   string // convert, cancel or delete
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s reservation %s in status %s", e.Op, e.ID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError aggregates field-level problems into a single failure.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, " ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// UserMessage maps a domain error to the French sentence shown to users.
// Unknown errors map to a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var funds *InsufficientFundsError
	if errors.As(err, &funds) {
		msg := "Montant insuffisant. Disponible: " + FormatAmount(funds.Available)
		if funds.Currency != "" {
			msg += " " + funds.Currency
		}
		return msg
	}

	var transition *TransitionError
	if errors.As(err, &transition) {
		switch transition.Op {
		case "convert":
			return "Seules les réservations actives peuvent être converties."
		case "cancel":
			return "Seules les réservations actives peuvent être annulées."
		case "delete":
			return "Impossible de supprimer une réservation active. Annulez-la d'abord."
		}
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return strings.Join(validation.Problems, " ")
	}

	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "Le montant doit être supérieur à 0."
	case errors.Is(err, ErrPlanNotFound):
		return "Plan budgétaire non trouvé."
	case errors.Is(err, ErrCategoryNotFound):
		return "Catégorie non trouvée."
	case errors.Is(err, ErrReservationNotFound):
		return "Réservation non trouvée."
	case errors.Is(err, ErrInvalidTransition):
		return "Transition non autorisée pour cette réservation."
	}
	return "Une erreur inattendue est survenue."
}
