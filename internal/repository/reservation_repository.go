package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/facility-booking/internal/model"
)

// Dates and times are formatted by MySQL so they scan into plain strings
// regardless of parseTime.  TIME_FORMAT keeps "24:00" intact.
const reservationColumns = `r.id, r.facility_id, r.account_id,
	DATE_FORMAT(r.date, '%Y-%m-%d'), TIME_FORMAT(r.start_time, '%H:%i'), TIME_FORMAT(r.end_time, '%H:%i'),
	r.status, r.created_at`

func scanReservation(row rowScanner, extra ...any) (model.Reservation, error) {
	var (
		res    model.Reservation
		status string
	)
	dest := append([]any{&res.ID, &res.FacilityID, &res.AccountID, &res.Date, &res.Start, &res.End, &status, &res.CreatedAt}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.Status(status)
	return res, nil
}

// GetReservation returns a reservation by id.
func (r *BookingRepo) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id))
}

// ListReservations returns reservations joined with their facility and
// account, ordered by date and start time.  The inner join on facilities
// drops rows whose facility no longer exists.
func (r *BookingRepo) ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.ReservationDetail, error) {
	var (
		where []string
		args  []any
	)
	if filter.AccountID != 0 {
		where = append(where, "r.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.FacilityID != 0 {
		where = append(where, "r.facility_id = ?")
		args = append(args, filter.FacilityID)
	}
	if filter.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, string(filter.Status))
	}
	q := `SELECT ` + reservationColumns + `, f.name, f.capacity, COALESCE(a.name, '')
	      FROM reservations r
	      JOIN facilities f ON f.id = r.facility_id
	      LEFT JOIN accounts a ON a.id = r.account_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.date, r.start_time, r.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		res, err := scanReservation(rows, &d.FacilityName, &d.FacilityCapacity, &d.AccountName)
		if err != nil {
			return nil, err
		}
		d.Reservation = res
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListApproved returns the approved reservations of a facility on a date.
func (r *BookingRepo) ListApproved(ctx context.Context, facilityID uint64, date string) ([]model.Reservation, error) {
	return listApproved(ctx, r.db, facilityID, date, 0, false)
}

// CreateReservation locks the facility, hands the approved reservations of
// the same date to guard and inserts r only when guard returns nil.  The
// generated id and timestamp are written back into r.
func (r *BookingRepo) CreateReservation(ctx context.Context, res *model.Reservation, guard AdmissionGuard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	f, err := lockFacility(ctx, tx, res.FacilityID)
	if err != nil {
		return err
	}
	if guard != nil {
		approved, err := listApproved(ctx, tx, f.ID, res.Date, 0, true)
		if err != nil {
			return err
		}
		if err := guard(f, approved); err != nil {
			return err
		}
	}

	const q = `INSERT INTO reservations (facility_id, account_id, date, start_time, end_time, status) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.FacilityID, res.AccountID, res.Date, res.Start, res.End, string(res.Status))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	created, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*res = created
	return nil
}

// DecideReservation locks the reservation and its facility, runs guard with
// the other approved reservations of the same date and then moves the
// reservation from pending to the given status.  A reservation that is no
// longer pending by the time of the update yields ErrConflict.
func (r *BookingRepo) DecideReservation(ctx context.Context, id uint64, to model.Status, guard DecisionGuard) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Read the facility id without a lock first so the facility lock can be
	// taken before the reservation lock, in the same order as admissions.
	target, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id))
	if err != nil {
		return model.Reservation{}, err
	}
	f, err := lockFacility(ctx, tx, target.FacilityID)
	if err != nil {
		return model.Reservation{}, err
	}
	target, err = scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Reservation{}, err
	}
	if guard != nil {
		approved, err := listApproved(ctx, tx, f.ID, target.Date, target.ID, true)
		if err != nil {
			return model.Reservation{}, err
		}
		if err := guard(target, f, approved); err != nil {
			return model.Reservation{}, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = 'pending'`, string(to), id)
	if err != nil {
		return model.Reservation{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Reservation{}, err
	}
	if n == 0 {
		return model.Reservation{}, ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	target.Status = to
	return target, nil
}

// DeleteReservation locks the reservation, hands it to guard and deletes it
// only when guard returns nil.  The delete is conditioned on the status the
// guard saw; a row that changed anyway yields ErrConflict.  The deleted
// reservation is returned.
func (r *BookingRepo) DeleteReservation(ctx context.Context, id uint64, guard CancelGuard) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	target, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Reservation{}, err
	}
	if guard != nil {
		if err := guard(target); err != nil {
			return model.Reservation{}, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM reservations WHERE id = ? AND status = ?`, id, string(target.Status))
	if err != nil {
		return model.Reservation{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Reservation{}, err
	}
	if n == 0 {
		return model.Reservation{}, ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	return target, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listApproved(ctx context.Context, db querier, facilityID uint64, date string, skip uint64, lock bool) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations r
	      WHERE r.facility_id = ? AND r.date = ? AND r.status = 'approved' AND r.id <> ?`
	if lock {
		q += " FOR UPDATE"
	}
	rows, err := db.QueryContext(ctx, q, facilityID, date, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
