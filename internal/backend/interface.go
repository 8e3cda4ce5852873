// Package backend selects and opens the reservation store.
package backend

import (
	"context"

	"budgetcare/internal/ports"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is an opened store with its cleanup and readiness check.
type BackendResult struct {
	Repository ports.ReservationRepository
	Cleanup    CleanupFunc
	// Ready is nil when the store has nothing to check.
	Ready func(context.Context) error
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Seed loads the demo reservations into an empty store.
	Seed bool
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
