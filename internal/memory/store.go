// Package memory is the process-lifetime reservation repository. It is the
// default backend and the one used by tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budgetcare/internal/core"
)

// Store keeps reservations in insertion order.
type Store struct {
	mu    sync.Mutex
	items []core.Reservation
}

func New(seed ...core.Reservation) *Store {
	s := &Store{items: make([]core.Reservation, 0, len(seed))}
	for _, r := range seed {
		s.items = append(s.items, r.Clone())
	}
	return s
}

func (s *Store) List(_ context.Context) ([]core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Reservation, len(s.items))
	for i, r := range s.items {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) Find(_ context.Context, id string) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		return s.items[i].Clone(), nil
	}
	return core.Reservation{}, fmt.Errorf("find %s: %w", id, core.ErrReservationNotFound)
}

func (s *Store) Insert(_ context.Context, r core.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(r.ID) >= 0 {
		return fmt.Errorf("insert %s: duplicate id", r.ID)
	}
	s.items = append(s.items, r.Clone())
	return nil
}

func (s *Store) Update(_ context.Context, r core.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(r.ID)
	if i < 0 {
		return fmt.Errorf("update %s: %w", r.ID, core.ErrReservationNotFound)
	}
	s.items[i] = r.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrReservationNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) index(id string) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func mustTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedReservations returns the demo reservations loaded when
// SEED_RESERVATIONS is enabled.
func SeedReservations() []core.Reservation {
	utilized := mustTime("2025-12-04T09:20:00Z")
	return []core.Reservation{
		{
			ID:           "res-001",
			PlanID:       "plan-2025",
			CategoryID:   "cat-education",
			Amount:       2000000,
			Purpose:      "Déploiement clinique mobile Nord",
			ReservedBy:   "Clarisse Ebode",
			ReservedDate: mustTime("2025-12-05T10:30:00Z"),
			Status:       core.ReservationActive,
			Notes:        "Achat véhicules + équipement médical",
		},
		{
			ID:           "res-002",
			PlanID:       "plan-2025",
			CategoryID:   "cat-health",
			Amount:       5000000,
			Purpose:      "Bourses scolaires S2",
			ReservedBy:   "Agnès Mbarga",
			ReservedDate: mustTime("2025-12-02T14:15:00Z"),
			Status:       core.ReservationUtilized,
			UtilizedDate: &utilized,
			Notes:        "120 bourses d'études",
		},
		{
			ID:                 "res-003",
			PlanID:             "plan-2026-draft",
			CategoryID:         "draft-rapid-response",
			Amount:             1500000,
			Purpose:            "Équipement d'urgence saison sèche",
			ReservedBy:         "Eric Nganou",
			ReservedDate:       mustTime("2025-12-04T16:45:00Z"),
			Status:             core.ReservationCancelled,
			CancellationReason: "Projet reporté à 2026",
			Notes:              "Délai procurement dépassé",
		},
	}
}
