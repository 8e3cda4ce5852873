package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgetcare/internal/core"
	"budgetcare/internal/log"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budgetcare.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	reserved := time.Date(2025, 12, 5, 10, 30, 0, 0, time.UTC)
	r := core.Reservation{
		ID:           "res-001",
		PlanID:       "plan-2025",
		CategoryID:   "cat-education",
		Amount:       2000000,
		Purpose:      "Déploiement clinique mobile Nord",
		ReservedBy:   "Clarisse Ebode",
		ReservedDate: reserved,
		Status:       core.ReservationActive,
	}
	if err := repo.Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Find(ctx, "res-001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Amount != r.Amount || !got.ReservedDate.Equal(reserved) || got.UtilizedDate != nil || got.Notes != "" {
		t.Fatalf("got %+v", got)
	}

	converted, err := got.Convert(core.Conversion{Vendor: "ACME"}, reserved.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if err := repo.Update(ctx, converted); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Find(ctx, "res-001")
	if got.Status != core.ReservationUtilized || got.UtilizedDate == nil || got.Notes != converted.Notes {
		t.Fatalf("after update %+v", got)
	}
}

func TestRepositoryOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, id := range []string{"res-c", "res-a", "res-b"} {
		err := repo.Insert(ctx, core.Reservation{ID: id, PlanID: "p", CategoryID: "c", Amount: 1, ReservedDate: time.Now(), Status: core.ReservationCancelled})
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := repo.Delete(ctx, "res-a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "res-c" || all[1].ID != "res-b" {
		t.Fatalf("list = %+v", all)
	}
}

func TestRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Find(ctx, "missing"); !errors.Is(err, core.ErrReservationNotFound) {
		t.Fatalf("find err = %v", err)
	}
	if err := repo.Update(ctx, core.Reservation{ID: "missing", Status: core.ReservationCancelled}); !errors.Is(err, core.ErrReservationNotFound) {
		t.Fatalf("update err = %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, core.ErrReservationNotFound) {
		t.Fatalf("delete err = %v", err)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seed := []core.Reservation{
		{ID: "res-1", PlanID: "p", CategoryID: "c", Amount: 1, ReservedDate: time.Now(), Status: core.ReservationActive},
		{ID: "res-2", PlanID: "p", CategoryID: "c", Amount: 2, ReservedDate: time.Now(), Status: core.ReservationActive},
	}

	n, err := repo.SeedIfEmpty(ctx, seed)
	if err != nil || n != 2 {
		t.Fatalf("seed = %d, %v", n, err)
	}
	n, err = repo.SeedIfEmpty(ctx, seed)
	if err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v", n, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetcare.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestRepositoryLogsAsStorage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &buf})
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budgetcare.db"), WithLogger(logger))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	defer repo.Close()

	r := core.Reservation{ID: "res-log", PlanID: "plan-2025", CategoryID: "cat-ops", Amount: 10,
		ReservedDate: time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC), Status: core.ReservationActive}
	if err := repo.Insert(context.Background(), r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "component=storage") || !strings.Contains(out, "reservation_id=res-log") {
		t.Fatalf("log output = %q", out)
	}
}
