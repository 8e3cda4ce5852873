// Package storage is the SQLite reservation repository.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budgetcare/internal/core"
	"budgetcare/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

type Option func(*SQLiteRepository)

func WithLogger(l *log.Logger) Option {
	return func(r *SQLiteRepository) { r.logger = l.WithComponent(log.ComponentStorage) }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Reservation, error) {
	rows, err := r.queries.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]core.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *SQLiteRepository) Find(ctx context.Context, id string) (core.Reservation, error) {
	row, err := r.queries.GetReservation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reservation{}, fmt.Errorf("find %s: %w", id, core.ErrReservationNotFound)
	}
	if err != nil {
		return core.Reservation{}, fmt.Errorf("find %s: %w", id, err)
	}
	return fromRow(row)
}

func (r *SQLiteRepository) Insert(ctx context.Context, res core.Reservation) error {
	if err := insert(ctx, r.queries, res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Reservation saved to SQLite",
		log.FieldReservationID, res.ID,
		log.FieldPlanID, res.PlanID,
		log.FieldAmount, res.Amount)
	return nil
}

func insert(ctx context.Context, q *Queries, res core.Reservation) error {
	err := q.InsertReservation(ctx, InsertReservationParams{
		ID:                 res.ID,
		PlanID:             res.PlanID,
		CategoryID:         res.CategoryID,
		Amount:             res.Amount,
		Purpose:            res.Purpose,
		ReservedBy:         res.ReservedBy,
		ReservedDate:       formatTime(res.ReservedDate),
		Status:             string(res.Status),
		UtilizedDate:       nullTime(res.UtilizedDate),
		CancellationReason: nullString(res.CancellationReason),
		Notes:              nullString(res.Notes),
	})
	if err != nil {
		return fmt.Errorf("insert %s: %w", res.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, res core.Reservation) error {
	n, err := r.queries.UpdateReservation(ctx, UpdateReservationParams{
		ID:                 res.ID,
		Status:             string(res.Status),
		UtilizedDate:       nullTime(res.UtilizedDate),
		CancellationReason: nullString(res.CancellationReason),
		Notes:              nullString(res.Notes),
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", res.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", res.ID, core.ErrReservationNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteReservation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrReservationNotFound)
	}
	return nil
}

// SeedIfEmpty inserts rs in one transaction when the table has no rows.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, rs []core.Reservation) (int, error) {
	n, err := r.queries.CountReservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	tq := r.queries.WithTx(tx)
	for _, res := range rs {
		if err := insert(ctx, tq, res); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	r.logger.InfoContext(ctx, "Seeded reservations", "count", len(rs))
	return len(rs), nil
}

func fromRow(row ReservationRow) (core.Reservation, error) {
	reserved, err := time.Parse(time.RFC3339Nano, row.ReservedDate)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("reservation %s: parse reserved_date: %w", row.ID, err)
	}
	res := core.Reservation{
		ID:                 row.ID,
		PlanID:             row.PlanID,
		CategoryID:         row.CategoryID,
		Amount:             row.Amount,
		Purpose:            row.Purpose,
		ReservedBy:         row.ReservedBy,
		ReservedDate:       reserved,
		Status:             core.ReservationStatus(row.Status),
		CancellationReason: row.CancellationReason.String,
		Notes:              row.Notes.String,
	}
	if row.UtilizedDate.Valid {
		t, err := time.Parse(time.RFC3339Nano, row.UtilizedDate.String)
		if err != nil {
			return core.Reservation{}, fmt.Errorf("reservation %s: parse utilized_date: %w", row.ID, err)
		}
		res.UtilizedDate = &t
	}
	return res, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
