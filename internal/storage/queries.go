package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ReservationRow mirrors the reservations table.
type ReservationRow struct {
	Seq                int64
	ID                 string
	PlanID             string
	CategoryID         string
	Amount             float64
	Purpose            string
	ReservedBy         string
	ReservedDate       string
	Status             string
	UtilizedDate       sql.NullString
	CancellationReason sql.NullString
	Notes              sql.NullString
}

const reservationColumns = `seq, id, plan_id, category_id, amount, purpose, reserved_by,
	reserved_date, status, utilized_date, cancellation_reason, notes`

func scanReservation(row interface{ Scan(...any) error }) (ReservationRow, error) {
	var r ReservationRow
	err := row.Scan(&r.Seq, &r.ID, &r.PlanID, &r.CategoryID, &r.Amount, &r.Purpose,
		&r.ReservedBy, &r.ReservedDate, &r.Status, &r.UtilizedDate,
		&r.CancellationReason, &r.Notes)
	return r, err
}

const listReservations = `SELECT ` + reservationColumns + ` FROM reservations ORDER BY seq`

func (q *Queries) ListReservations(ctx context.Context) ([]ReservationRow, error) {
	rows, err := q.db.QueryContext(ctx, listReservations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ReservationRow
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const getReservation = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

func (q *Queries) GetReservation(ctx context.Context, id string) (ReservationRow, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getReservation, id))
}

type InsertReservationParams struct {
	ID                 string
	PlanID             string
	CategoryID         string
	Amount             float64
	Purpose            string
	ReservedBy         string
	ReservedDate       string
	Status             string
	UtilizedDate       sql.NullString
	CancellationReason sql.NullString
	Notes              sql.NullString
}

const insertReservation = `INSERT INTO reservations (
	id, plan_id, category_id, amount, purpose, reserved_by,
	reserved_date, status, utilized_date, cancellation_reason, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertReservation(ctx context.Context, arg InsertReservationParams) error {
	_, err := q.db.ExecContext(ctx, insertReservation,
		arg.ID, arg.PlanID, arg.CategoryID, arg.Amount, arg.Purpose, arg.ReservedBy,
		arg.ReservedDate, arg.Status, arg.UtilizedDate, arg.CancellationReason, arg.Notes)
	return err
}

type UpdateReservationParams struct {
	ID                 string
	Status             string
	UtilizedDate       sql.NullString
	CancellationReason sql.NullString
	Notes              sql.NullString
}

// Only the fields a transition can change are updated.
const updateReservation = `UPDATE reservations
SET status = ?, utilized_date = ?, cancellation_reason = ?, notes = ?
WHERE id = ?`

func (q *Queries) UpdateReservation(ctx context.Context, arg UpdateReservationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateReservation,
		arg.Status, arg.UtilizedDate, arg.CancellationReason, arg.Notes, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteReservation = `DELETE FROM reservations WHERE id = ?`

func (q *Queries) DeleteReservation(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteReservation, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countReservations = `SELECT COUNT(*) FROM reservations`

func (q *Queries) CountReservations(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countReservations).Scan(&n)
	return n, err
}
