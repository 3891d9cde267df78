package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/repository"
)

// Expectations are ordered, so every test also pins the statement order.
var (
	lockFacilitySQL    = regexp.QuoteMeta("FROM facilities WHERE id = ? FOR UPDATE")
	approvedSQL        = regexp.QuoteMeta("r.status = 'approved' AND r.id <> ? FOR UPDATE")
	reservationSQL     = regexp.QuoteMeta("FROM reservations r WHERE r.id = ?") + "$"
	lockReservationSQL = regexp.QuoteMeta("FROM reservations r WHERE r.id = ? FOR UPDATE")
	insertSQL          = regexp.QuoteMeta("INSERT INTO reservations")
	decideSQL          = regexp.QuoteMeta("UPDATE reservations SET status = ? WHERE id = ? AND status = 'pending'")
	cancelSQL          = regexp.QuoteMeta("DELETE FROM reservations WHERE id = ? AND status = ?")
)

var errGuard = errors.New("refused")

func newMockRepo(t *testing.T) (*repository.BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return repository.NewBookingRepo(db), mock
}

func facilityRow(id uint64, capacity int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "capacity", "created_at"}).
		AddRow(id, "Main Hall", capacity, time.Now())
}

func reservationRows(rs ...model.Reservation) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "facility_id", "account_id", "date", "start_time", "end_time", "status", "created_at"})
	for _, r := range rs {
		rows.AddRow(r.ID, r.FacilityID, r.AccountID, r.Date, r.Start, r.End, string(r.Status), time.Now())
	}
	return rows
}

func pendingRow(id uint64) model.Reservation {
	return model.Reservation{ID: id, FacilityID: 7, AccountID: 2, Date: "2024-05-01", Start: "10:00", End: "11:00", Status: model.StatusPending}
}

func TestCreateReservationGuardRefusalRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	existing := model.Reservation{ID: 3, FacilityID: 7, AccountID: 9, Date: "2024-05-01", Start: "10:00", End: "12:00", Status: model.StatusApproved}

	mock.ExpectBegin()
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(facilityRow(7, 1))
	mock.ExpectQuery(approvedSQL).WithArgs(7, "2024-05-01", 0).WillReturnRows(reservationRows(existing))
	mock.ExpectRollback()

	res := pendingRow(0)
	var seen []model.Reservation
	err := repo.CreateReservation(context.Background(), &res, func(f model.Facility, approved []model.Reservation) error {
		assert.Equal(t, 1, f.Capacity)
		seen = approved
		return errGuard
	})
	assert.ErrorIs(t, err, errGuard)
	require.Len(t, seen, 1)
	assert.Equal(t, uint64(3), seen[0].ID)
	assert.Zero(t, res.ID, "nothing was inserted")
}

func TestCreateReservationInsertsUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(facilityRow(7, 2))
	mock.ExpectQuery(approvedSQL).WithArgs(7, "2024-05-01", 0).WillReturnRows(reservationRows())
	mock.ExpectExec(insertSQL).WithArgs(7, 2, "2024-05-01", "10:00", "11:00", "pending").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(reservationSQL).WithArgs(42).WillReturnRows(reservationRows(pendingRow(42)))
	mock.ExpectCommit()

	res := pendingRow(0)
	err := repo.CreateReservation(context.Background(), &res, func(model.Facility, []model.Reservation) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
	assert.Equal(t, model.StatusPending, res.Status)
}

func TestCreateReservationUnknownFacility(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "created_at"}))
	mock.ExpectRollback()

	res := pendingRow(0)
	err := repo.CreateReservation(context.Background(), &res, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// expectDecisionLocks queues the reads DecideReservation performs before its
// guard: an unlocked read, the facility lock, then the reservation lock.
func expectDecisionLocks(mock sqlmock.Sqlmock, id uint64) {
	mock.ExpectBegin()
	mock.ExpectQuery(reservationSQL).WithArgs(id).WillReturnRows(reservationRows(pendingRow(id)))
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(facilityRow(7, 1))
	mock.ExpectQuery(lockReservationSQL).WithArgs(id).WillReturnRows(reservationRows(pendingRow(id)))
	mock.ExpectQuery(approvedSQL).WithArgs(7, "2024-05-01", id).WillReturnRows(reservationRows())
}

func TestDecideReservationLocksFacilityBeforeReservation(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectDecisionLocks(mock, 5)
	mock.ExpectExec(decideSQL).WithArgs("approved", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.DecideReservation(context.Background(), 5, model.StatusApproved,
		func(target model.Reservation, f model.Facility, approved []model.Reservation) error {
			assert.Equal(t, model.StatusPending, target.Status)
			assert.Empty(t, approved)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
}

func TestDecideReservationGuardRefusalRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectDecisionLocks(mock, 5)
	mock.ExpectRollback()

	_, err := repo.DecideReservation(context.Background(), 5, model.StatusApproved,
		func(model.Reservation, model.Facility, []model.Reservation) error { return errGuard })
	assert.ErrorIs(t, err, errGuard)
}

func TestDecideReservationNoLongerPending(t *testing.T) {
	repo, mock := newMockRepo(t)
	expectDecisionLocks(mock, 5)
	mock.ExpectExec(decideSQL).WithArgs("rejected", 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.DecideReservation(context.Background(), 5, model.StatusRejected,
		func(model.Reservation, model.Facility, []model.Reservation) error { return nil })
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestDeleteReservationGuardRunsUnderLock(t *testing.T) {
	t.Run("refused", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockReservationSQL).WithArgs(5).WillReturnRows(reservationRows(pendingRow(5)))
		mock.ExpectRollback()

		_, err := repo.DeleteReservation(context.Background(), 5, func(model.Reservation) error { return errGuard })
		assert.ErrorIs(t, err, errGuard)
	})
	t.Run("status changed", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockReservationSQL).WithArgs(5).WillReturnRows(reservationRows(pendingRow(5)))
		mock.ExpectExec(cancelSQL).WithArgs(5, "pending").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.DeleteReservation(context.Background(), 5, nil)
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
	t.Run("deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockReservationSQL).WithArgs(5).WillReturnRows(reservationRows(pendingRow(5)))
		mock.ExpectExec(cancelSQL).WithArgs(5, "pending").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := repo.DeleteReservation(context.Background(), 5, func(r model.Reservation) error {
			assert.Equal(t, uint64(2), r.AccountID)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), got.ID)
	})
	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockReservationSQL).WithArgs(5).WillReturnRows(reservationRows())
		mock.ExpectRollback()

		_, err := repo.DeleteReservation(context.Background(), 5, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDeleteFacilityCascadeOrder(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(facilityRow(7, 6))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations WHERE facility_id = ?")).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM facilities WHERE id = ?")).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.DeleteFacilityCascade(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
}

func TestDeleteFacilityCascadeFailureKeepsChildren(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockFacilitySQL).WithArgs(7).WillReturnRows(facilityRow(7, 6))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations WHERE facility_id = ?")).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM facilities WHERE id = ?")).WithArgs(7).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.DeleteFacilityCascade(context.Background(), 7)
	assert.Error(t, err)
}

func TestRevokeByHashIsSingleUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	tokens := repository.NewTokenRepo(db)
	revoke := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")

	mock.ExpectExec(revoke).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(revoke).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, tokens.RevokeByHash(context.Background(), "h"))
	assert.ErrorIs(t, tokens.RevokeByHash(context.Background(), "h"), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
