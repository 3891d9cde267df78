package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/facility-booking/internal/model"
)

// BookingRepo is the MySQL implementation of the booking store.  Facility
// methods live in this file and reservation methods in
// reservation_repository.go.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const facilityColumns = `id, name, capacity, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFacility(row rowScanner) (model.Facility, error) {
	var f model.Facility
	err := row.Scan(&f.ID, &f.Name, &f.Capacity, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Facility{}, ErrNotFound
	}
	return f, err
}

// GetFacility returns the facility with the given id.
func (r *BookingRepo) GetFacility(ctx context.Context, id uint64) (model.Facility, error) {
	return scanFacility(r.db.QueryRowContext(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE id = ?`, id))
}

// ListFacilities returns every facility ordered by name.
func (r *BookingRepo) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+facilityColumns+` FROM facilities ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FacilitySummaries returns every facility with its pending and approved
// reservation counts.
func (r *BookingRepo) FacilitySummaries(ctx context.Context) ([]model.FacilitySummary, error) {
	const q = `SELECT f.id, f.name, f.capacity, f.created_at,
	                  COALESCE(SUM(r.status = 'pending'), 0),
	                  COALESCE(SUM(r.status = 'approved'), 0)
	           FROM facilities f
	           LEFT JOIN reservations r ON r.facility_id = f.id
	           GROUP BY f.id, f.name, f.capacity, f.created_at
	           ORDER BY f.name, f.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.FacilitySummary, 0)
	for rows.Next() {
		var s model.FacilitySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Capacity, &s.CreatedAt, &s.Pending, &s.Approved); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateFacility inserts f and fills in its generated id and timestamp.
func (r *BookingRepo) CreateFacility(ctx context.Context, f *model.Facility) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO facilities (name, capacity) VALUES (?, ?)`, f.Name, f.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetFacility(ctx, uint64(id))
	if err != nil {
		return err
	}
	*f = created
	return nil
}

// DeleteFacilityCascade removes every reservation of the facility and then
// the facility itself in one transaction.  It returns the number of
// reservations removed, or ErrNotFound when the facility does not exist.
func (r *BookingRepo) DeleteFacilityCascade(ctx context.Context, id uint64) (removed int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := lockFacility(ctx, tx, id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE facility_id = ?`, id)
	if err != nil {
		return 0, err
	}
	if removed, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return removed, nil
}

// lockFacility reads the facility row FOR UPDATE.  Every admission and
// decision on a facility takes this lock first, which serialises them.
func lockFacility(ctx context.Context, tx *sql.Tx, id uint64) (model.Facility, error) {
	return scanFacility(tx.QueryRowContext(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE id = ? FOR UPDATE`, id))
}
