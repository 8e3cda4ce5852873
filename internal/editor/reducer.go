package editor

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"budgetcare/internal/core"
)

const (
	msgAdded       = "Ligne budgétaire ajoutée."
	msgUpdated     = "Ligne mise à jour."
	msgDeleted     = "Ligne supprimée."
	msgNotEditable = "Seuls les plans en brouillon peuvent être modifiés."
)

// Reducer applies actions. NewID generates ids for added categories.
type Reducer struct {
	NewID func() string
}

var defaultReducer = Reducer{NewID: func() string { return "cat-" + uuid.NewString() }}

// Reduce applies a with the default id generator.
func Reduce(s State, a Action) State {
	return defaultReducer.Reduce(s, a)
}

// NewState returns the state of an editor opened on plan.
func NewState(plan core.BudgetPlan) State {
	return Reduce(State{}, Hydrate{
		PlanID:     plan.ID,
		Categories: plan.Categories,
		Editable:   plan.IsDraft(),
	})
}

func (r Reducer) Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Hydrate:
		cats := make([]core.Category, len(a.Categories))
		copy(cats, a.Categories)
		return State{PlanID: a.PlanID, Editable: a.Editable, Categories: cats}

	case ToggleAddForm:
		open := !s.ShowAddForm
		if a.Open != nil {
			open = *a.Open
		}
		s.ShowAddForm = open
		if a.Open != nil && !*a.Open {
			s.AddForm = Form{}
		}
		s.Feedback = nil
		return s

	case UpdateAddForm:
		if f, ok := s.AddForm.set(a.Field, a.Value); ok {
			s.AddForm = f
		}
		return s

	case AddCategory:
		if !s.Editable {
			s.Feedback = failure(msgNotEditable)
			return s
		}
		c, err := parseForm(s.AddForm)
		if err != nil {
			s.Feedback = failure(core.UserMessage(err))
			return s
		}
		c.ID = r.NewID()
		s.Categories = append(append([]core.Category(nil), s.Categories...), c)
		s.AddForm = Form{}
		s.ShowAddForm = false
		s.Feedback = success(msgAdded)
		return s

	case StartEdit:
		target, ok := find(s.Categories, a.CategoryID)
		if !ok {
			return s
		}
		if !s.Editable {
			s.Feedback = failure(msgNotEditable)
			return s
		}
		s.EditingDraft = toDraft(target)
		s.Feedback = nil
		return s

	case CancelEdit:
		s.EditingDraft = nil
		return s

	case UpdateEditingField:
		if s.EditingDraft == nil {
			return s
		}
		f, ok := s.EditingDraft.Form.set(a.Field, a.Value)
		if !ok {
			return s
		}
		s.EditingDraft = &Draft{ID: s.EditingDraft.ID, Form: f}
		return s

	case SaveEdit:
		if s.EditingDraft == nil {
			return s
		}
		if !s.Editable {
			s.Feedback = failure(msgNotEditable)
			return s
		}
		c, err := parseForm(s.EditingDraft.Form)
		if err != nil {
			s.Feedback = failure(core.UserMessage(err))
			return s
		}
		c.ID = s.EditingDraft.ID
		next := make([]core.Category, len(s.Categories))
		for i, existing := range s.Categories {
			if existing.ID == c.ID {
				next[i] = c
			} else {
				next[i] = existing
			}
		}
		s.Categories = next
		s.EditingDraft = nil
		s.Feedback = success(msgUpdated)
		return s

	case DeleteCategory:
		if !s.Editable {
			s.Feedback = failure(msgNotEditable)
			return s
		}
		// Reservations referencing the category are left as they are.
		next := make([]core.Category, 0, len(s.Categories))
		for _, c := range s.Categories {
			if c.ID != a.CategoryID {
				next = append(next, c)
			}
		}
		s.Categories = next
		if s.EditingDraft != nil && s.EditingDraft.ID == a.CategoryID {
			s.EditingDraft = nil
		}
		s.Feedback = success(msgDeleted)
		return s

	case ClearFeedback:
		s.Feedback = nil
		return s
	}
	return s
}

func find(cats []core.Category, id string) (core.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func toDraft(c core.Category) *Draft {
	return &Draft{
		ID: c.ID,
		Form: Form{
			Label:     c.Label,
			Owner:     c.Owner,
			Allocated: strconv.FormatFloat(c.Allocated, 'f', -1, 64),
			Utilized:  strconv.FormatFloat(c.Utilized, 'f', -1, 64),
			Notes:     c.Notes,
		},
	}
}

// parseForm validates the raw form and returns the category it describes,
// without id. Reserved is always reset to zero.
func parseForm(f Form) (core.Category, error) {
	allocated := core.ParseAmount(f.Allocated)
	utilized := 0.0
	if strings.TrimSpace(f.Utilized) != "" {
		utilized = core.ParseAmount(f.Utilized)
	}

	var problems []string
	if strings.TrimSpace(f.Label) == "" {
		problems = append(problems, "Le nom de la catégorie est requis.")
	}
	if strings.TrimSpace(f.Owner) == "" {
		problems = append(problems, "Merci d indiquer un responsable.")
	}
	if !core.IsValidAmount(allocated) {
		problems = append(problems, "Le montant alloué doit être supérieur à 0.")
	}
	if !core.IsFinite(utilized) || utilized < 0 {
		problems = append(problems, "Le montant utilisé doit être positif.")
	}
	if core.IsFinite(allocated) && core.IsFinite(utilized) && utilized > allocated {
		problems = append(problems, "Le montant utilisé ne peut pas dépasser l allocation.")
	}
	if len(problems) > 0 {
		return core.Category{}, &core.ValidationError{Problems: problems}
	}

	return core.Category{
		Label:     strings.TrimSpace(f.Label),
		Owner:     strings.TrimSpace(f.Owner),
		Allocated: allocated,
		Utilized:  utilized,
		Notes:     strings.TrimSpace(f.Notes),
	}, nil
}
