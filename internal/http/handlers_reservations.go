package http

import (
	"net/http"

	"budgetcare/internal/core"
	"budgetcare/internal/log"
)

type reservationListBody struct {
	Reservations []core.Reservation `json:"reservations"`
	Count        int                `json:"count"`
}

func (s *Server) handleListPlanReservations(w http.ResponseWriter, r *http.Request) {
	planID := pathParam(r, "planID")
	if _, err := s.plans.FindPlan(r.Context(), planID); err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.listReservations(w, r, planID)
}

// handleListReservations lists across plans; ?plan= narrows to one.
func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	s.listReservations(w, r, "")
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request, planID string) {
	f, err := ParseFilter(r.URL.Query(), planID)
	if err != nil {
		BadRequestError("Statut de réservation invalide.").Write(w)
		return
	}
	rs, err := s.reservations.Search(r.Context(), f)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(reservationListBody{Reservations: rs, Count: len(rs)}).Write(w)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	res, err := s.reservations.Create(r.Context(), pathParam(r, "planID"), ParseReservationForm(p), ReservedBy(p, r))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/reservations/"+res.ID).
		Data(res).
		Write(w)
}

func (s *Server) handleConvertReservation(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	res, err := s.reservations.Convert(r.Context(), pathParam(r, "id"), ParseConversion(p))
	if err != nil {
		s.fail(w, r, log.OpConvert, err)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	res, err := s.reservations.Cancel(r.Context(), pathParam(r, "id"), ParseCancellation(p))
	if err != nil {
		s.fail(w, r, log.OpCancel, err)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := s.reservations.Delete(r.Context(), pathParam(r, "id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
