// Package editor implements the category editor of a budget plan as a pure
// reducer: every user gesture is an Action and Reduce returns the next State
// without touching the input.
//
// The editor works on a local copy of the plan's categories. Saving never
// writes back to the plan store.
package editor

import "budgetcare/internal/core"

type FeedbackType string

const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackError   FeedbackType = "error"
)

type Feedback struct {
	Type    FeedbackType `json:"type"`
	Message string       `json:"message"`
}

// Form holds the raw text of the add-category form.
type Form struct {
	Label     string `json:"label"`
	Owner     string `json:"owner"`
	Allocated string `json:"allocated"`
	Utilized  string `json:"utilized"`
	Notes     string `json:"notes"`
}

// Draft is the raw text of the category being edited.
type Draft struct {
	ID string `json:"id"`
	Form
}

type State struct {
	PlanID       string          `json:"planId"`
	Editable     bool            `json:"editable"`
	Categories   []core.Category `json:"categories"`
	EditingDraft *Draft          `json:"editingDraft"`
	ShowAddForm  bool            `json:"showAddForm"`
	AddForm      Form            `json:"addForm"`
	Feedback     *Feedback       `json:"feedback"`
}

// Form field names accepted by UpdateAddForm and UpdateEditingField.
const (
	FieldLabel     = "label"
	FieldOwner     = "owner"
	FieldAllocated = "allocated"
	FieldUtilized  = "utilized"
	FieldNotes     = "notes"
)

// set returns a copy of f with field replaced. Unknown fields report false.
func (f Form) set(field, value string) (Form, bool) {
	switch field {
	case FieldLabel:
		f.Label = value
	case FieldOwner:
		f.Owner = value
	case FieldAllocated:
		f.Allocated = value
	case FieldUtilized:
		f.Utilized = value
	case FieldNotes:
		f.Notes = value
	default:
		return f, false
	}
	return f, true
}

func success(msg string) *Feedback { return &Feedback{Type: FeedbackSuccess, Message: msg} }
func failure(msg string) *Feedback { return &Feedback{Type: FeedbackError, Message: msg} }
