package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return NewStore(sqlx.NewDb(raw, "mysql")), mock
}

func beginTx(t *testing.T, s *Store, mock sqlmock.Sqlmock) *sqlx.Tx {
	mock.ExpectBegin()
	tx, err := s.DB.Beginx()
	require.NoError(t, err)
	return tx
}

func TestReserveSeatTx(t *testing.T) {
	s, mock := newMockStore(t)
	tx := beginTx(t, s, mock)
	ctx := context.Background()

	mock.ExpectExec("UPDATE seat_inventory SET is_available = FALSE").
		WithArgs(uint64(7), "A1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seat_inventory SET is_available = FALSE").
		WithArgs(uint64(7), "A1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Seats.ReserveSeatTx(ctx, tx, 7, "A1"))
	assert.ErrorIs(t, s.Seats.ReserveSeatTx(ctx, tx, 7, "A1"), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSeatsOrdered(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "seat_number", "coach_number", "class_type", "seat_row", "seat_col", "is_available", "updated_at"}).
		AddRow(1, 3, "A1", 1, "ECONOMY", 1, 1, true, now).
		AddRow(2, 3, "A2", 1, "ECONOMY", 1, 2, false, now)
	mock.ExpectQuery("FROM seat_inventory").WithArgs(uint64(3)).WillReturnRows(rows)

	seats, err := s.Seats.GetSeats(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.True(t, seats[0].IsAvailable)
	assert.False(t, seats[1].IsAvailable)
}

func TestGetSeatTxNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	tx := beginTx(t, s, mock)
	mock.ExpectQuery("FROM seat_inventory").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Seats.GetSeatTx(context.Background(), tx, 3, "Z9")
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestCreateBulkTxSingleStatement(t *testing.T) {
	s, mock := newMockStore(t)
	tx := beginTx(t, s, mock)
	mock.ExpectExec("INSERT INTO seat_inventory").
		WithArgs(uint64(3), "A1", 1, "ECONOMY", 1, 1, uint64(3), "A2", 1, "ECONOMY", 1, 2).
		WillReturnResult(sqlmock.NewResult(2, 2))

	err := s.Seats.CreateBulkTx(context.Background(), tx, []model.SeatRecord{
		{ScheduleID: 3, SeatNumber: "A1", CoachNumber: 1, ClassType: "ECONOMY", Row: 1, Column: 1},
		{ScheduleID: 3, SeatNumber: "A2", CoachNumber: 1, ClassType: "ECONOMY", Row: 1, Column: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkUsedTxOnlyOnce(t *testing.T) {
	s, mock := newMockStore(t)
	tx := beginTx(t, s, mock)
	mock.ExpectExec("UPDATE discount_codes SET used_at").
		WithArgs(sqlmock.AnyArg(), "SPRING20", uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Discounts.MarkUsedTx(context.Background(), tx, "SPRING20", 9, time.Now())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransitionTxRejectsIllegalMove(t *testing.T) {
	s, mock := newMockStore(t)
	tx := beginTx(t, s, mock)

	err := s.Tickets.TransitionTx(context.Background(), tx, 1, model.TicketBooked, model.TicketCancelled)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketGetByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM tickets").WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Tickets.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
