package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetcare/internal/cache"
	"budgetcare/internal/core"
)

var ErrSessionNotFound = errors.New("editor session not found")

// Sessions keeps one editor state per session id. Idle sessions expire after
// the configured TTL.
type Sessions struct {
	mu      sync.Mutex
	states  *cache.LRUCache[State]
	reducer Reducer
}

func NewSessions(maxSessions int, ttl time.Duration) *Sessions {
	return &Sessions{
		states:  cache.NewLRUCache[State](maxSessions, ttl),
		reducer: defaultReducer,
	}
}

// Cache exposes the underlying store so it can be registered for cleanup.
func (s *Sessions) Cache() *cache.LRUCache[State] { return s.states }

// Open starts a session hydrated from plan and returns its id.
func (s *Sessions) Open(plan core.BudgetPlan) (string, State) {
	id := uuid.NewString()
	state := NewState(plan)
	s.states.Set(id, state)
	return id, state
}

func (s *Sessions) Get(id string) (State, error) {
	state, ok := s.states.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return state, nil
}

// Dispatch applies a to the session state and stores the result.
func (s *Sessions) Dispatch(id string, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	next := s.reducer.Reduce(state, a)
	s.states.Set(id, next)
	return next, nil
}
