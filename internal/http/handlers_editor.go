package http

import (
	"errors"
	"net/http"

	"budgetcare/internal/editor"
	"budgetcare/internal/log"
)

type editorBody struct {
	SessionID string       `json:"sessionId"`
	State     editor.State `json:"state"`
}

// handleOpenEditor starts an editor session on a copy of the plan's
// categories. Edits stay in the session and never reach the plan store.
func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.FindPlan(r.Context(), pathParam(r, "planID"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}

	id, state := s.sessions.Open(plan)
	log.FromContext(r.Context()).WithComponent(log.ComponentEditor).InfoContext(r.Context(), "Editor session opened",
		log.FieldSessionID, id, log.FieldPlanID, plan.ID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Data(editorBody{SessionID: id, State: state}).
		Write(w)
}

func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "sessionID")
	state, err := s.sessions.Get(id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(editorBody{SessionID: id, State: state}).Write(w)
}

func (s *Server) handleEditorAction(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "sessionID")

	p := NewRequestBodyParser(r)
	action, err := ParseEditorAction(p)
	if err != nil {
		if errors.Is(err, editor.ErrUnknownAction) {
			s.fail(w, r, log.OpDispatch, err)
			return
		}
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	state, err := s.sessions.Dispatch(id, action)
	if err != nil {
		s.fail(w, r, log.OpDispatch, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentEditor).DebugContext(r.Context(), "Editor action applied",
		log.FieldSessionID, id, "action", action)
	NewJSONResponse().Data(editorBody{SessionID: id, State: state}).Write(w)
}
