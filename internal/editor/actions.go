package editor

import (
	"encoding/json"
	"errors"
	"fmt"

	"budgetcare/internal/core"
)

// Action is one of the editor gestures below.
type Action interface {
	editorAction()
}

type (
	// Hydrate loads a plan's categories and resets every other field.
	Hydrate struct {
		PlanID     string
		Categories []core.Category
		Editable   bool
	}

	// ToggleAddForm flips the add form, or forces it when Open is set.
	// Closing the form resets its content.
	ToggleAddForm struct {
		Open *bool `json:"open,omitempty"`
	}

	UpdateAddForm struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}

	AddCategory struct{}

	StartEdit struct {
		CategoryID string `json:"categoryId"`
	}

	CancelEdit struct{}

	UpdateEditingField struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}

	SaveEdit struct{}

	DeleteCategory struct {
		CategoryID string `json:"categoryId"`
	}

	ClearFeedback struct{}
)

func (Hydrate) editorAction()            {}
func (ToggleAddForm) editorAction()      {}
func (UpdateAddForm) editorAction()      {}
func (AddCategory) editorAction()        {}
func (StartEdit) editorAction()          {}
func (CancelEdit) editorAction()         {}
func (UpdateEditingField) editorAction() {}
func (SaveEdit) editorAction()           {}
func (DeleteCategory) editorAction()     {}
func (ClearFeedback) editorAction()      {}

var ErrUnknownAction = errors.New("unknown editor action")

// DecodeAction builds an action from its wire name and JSON payload.
// Hydrate is not accepted: sessions are hydrated from the plan store.
func DecodeAction(kind string, payload json.RawMessage) (Action, error) {
	var target Action
	switch kind {
	case "toggleAddForm":
		var a ToggleAddForm
		if err := decodePayload(payload, &a); err != nil {
			return nil, err
		}
		target = a
	case "updateAddForm":
		var a UpdateAddForm
		if err := decodePayload(payload, &a); err != nil {
			return nil, err
		}
		target = a
	case "addCategory":
		target = AddCategory{}
	case "startEdit":
		var a StartEdit
		if err := decodePayload(payload, &a); err != nil {
			return nil, err
		}
		target = a
	case "cancelEdit":
		target = CancelEdit{}
	case "updateEditingField":
		var a UpdateEditingField
		if err := decodePayload(payload, &a); err != nil {
			return nil, err
		}
		target = a
	case "saveEdit":
		target = SaveEdit{}
	case "deleteCategory":
		var a DeleteCategory
		if err := decodePayload(payload, &a); err != nil {
			return nil, err
		}
		target = a
	case "clearFeedback":
		target = ClearFeedback{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	return target, nil
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode action payload: %w", err)
	}
	return nil
}
