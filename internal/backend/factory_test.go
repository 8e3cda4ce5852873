package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"budgetcare/internal/config"
	"budgetcare/internal/log"
)

func quietFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestCreateBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "budgetcare.db")

	tests := []struct {
		name      string
		config    Config
		wantCount int
		wantReady bool
	}{
		{"memory seeded", Config{Type: MemoryBackend, Seed: true}, 3, false},
		{"memory empty", Config{Type: MemoryBackend}, 0, false},
		{"sqlite seeded", Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, Seed: true}, 3, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietFactory().CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			list, err := res.Repository.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != tt.wantCount {
				t.Fatalf("reservations = %d, want %d", len(list), tt.wantCount)
			}
			if (res.Ready != nil) != tt.wantReady {
				t.Fatalf("ready check present = %v", res.Ready != nil)
			}
			if res.Ready != nil {
				if err := res.Ready(ctx); err != nil {
					t.Fatalf("Ready: %v", err)
				}
			}
		})
	}
}

func TestSQLiteSeedsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "budgetcare.db"), Seed: true}

	for i := 0; i < 2; i++ {
		res, err := quietFactory().CreateBackend(ctx, cfg)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		list, _ := res.Repository.List(ctx)
		res.Cleanup()
		if len(list) != 3 {
			t.Fatalf("open %d: reservations = %d", i, len(list))
		}
	}
}

func TestCreateBackendRejectsInvalid(t *testing.T) {
	for _, cfg := range []Config{
		{Type: "sheets"},
		{Type: SQLiteBackend},
	} {
		if _, err := quietFactory().CreateBackend(context.Background(), cfg); err == nil {
			t.Errorf("CreateBackend(%+v) should fail", cfg)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SeedReservations: true})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || !cfg.Seed {
		t.Fatalf("config = %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("sheets backend should be rejected")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config should be rejected")
	}
}
