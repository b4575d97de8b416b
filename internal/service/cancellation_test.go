package service

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

func TestRequestCancellation(t *testing.T) {
	env := newMockEnv(t)
	m := env.mock

	m.ExpectBegin()
	env.expectTicket(5, 9, "BOOKED")
	m.ExpectExec("UPDATE tickets SET status").WithArgs("PENDING_CANCELLATION", uint64(5), "BOOKED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec("UPDATE bookings SET cancellation_reason").WithArgs("change of plans", uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectCommit()

	ack, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
		TicketID: 5, PassengerID: ptr(uint64(9)), Reason: "  change of plans ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketPendingCancellation, ack.Status)
	assert.NoError(t, m.ExpectationsWereMet())
	// the seat stays held, so nothing is invalidated
	assert.Empty(t, env.cache.invalidated)
}

func TestRequestCancellationRequiresReason(t *testing.T) {
	env := newMockEnv(t)
	_, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
		TicketID: 5, Reason: " \t",
	})
	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRequestCancellationRejectsLongReason(t *testing.T) {
	env := newMockEnv(t)
	_, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
		TicketID: 5, Reason: strings.Repeat("x", maxReasonLength+1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRequestCancellationNotBooked(t *testing.T) {
	for _, status := range []string{"PENDING_CANCELLATION", "CANCELLED"} {
		t.Run(status, func(t *testing.T) {
			env := newMockEnv(t)
			env.mock.ExpectBegin()
			env.expectTicket(5, 9, status)
			env.mock.ExpectRollback()

			_, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
				TicketID: 5, Reason: "sick",
			})
			assert.ErrorIs(t, err, ErrTicketNotCancellable)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestRequestCancellationLostRace(t *testing.T) {
	env := newMockEnv(t)
	env.mock.ExpectBegin()
	env.expectTicket(5, 9, "BOOKED")
	env.mock.ExpectExec("UPDATE tickets SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	env.mock.ExpectRollback()

	_, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
		TicketID: 5, Reason: "sick",
	})
	assert.ErrorIs(t, err, ErrTicketNotCancellable)
}

func TestRequestCancellationOtherPassenger(t *testing.T) {
	env := newMockEnv(t)
	env.mock.ExpectBegin()
	env.expectTicket(5, 9, "BOOKED")
	env.mock.ExpectRollback()

	_, err := NewCancellationService(env.store, env.opts).RequestCancellation(context.Background(), RequestCancellationInput{
		TicketID: 5, PassengerID: ptr(uint64(10)), Reason: "sick",
	})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestConfirmCancellation(t *testing.T) {
	env := newMockEnv(t)
	m := env.mock

	m.ExpectBegin()
	env.expectTicket(5, 9, "PENDING_CANCELLATION")
	m.ExpectExec("UPDATE tickets SET status").WithArgs("CANCELLED", uint64(5), "PENDING_CANCELLATION").
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec("UPDATE seat_inventory SET is_available = TRUE").WithArgs(uint64(1), "A1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec("UPDATE payments p").WithArgs("REFUNDED", uint64(21), "COMPLETED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec("INSERT INTO notifications").WithArgs(uint64(9), sqlmock.AnyArg(), model.NotificationCancellationConfirmed, fixedNow).
		WillReturnResult(sqlmock.NewResult(41, 1))
	m.ExpectExec("INSERT INTO cancellation_audit").
		WithArgs(uint64(5), uint64(77), "CONFIRM_CANCELLATION", "PENDING_CANCELLATION", "CANCELLED", fixedNow).
		WillReturnResult(sqlmock.NewResult(51, 1))
	m.ExpectCommit()

	svc := NewCancellationService(env.store, env.opts)
	ack, err := svc.ConfirmCancellation(context.Background(), ConfirmCancellationInput{
		TicketID: 5, AdminID: 77,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, ack.Status)
	assert.NoError(t, m.ExpectationsWereMet())

	svc.Wait()
	require.Len(t, env.publisher.confirmed, 1)
	ev := env.publisher.confirmed[0]
	assert.Equal(t, uint64(41), ev.NotificationID)
	assert.Equal(t, uint64(77), ev.AdminID)
	assert.Contains(t, ev.Message, "500.00")
	assert.Equal(t, []uint64{1}, env.cache.invalidated)
}

func TestConfirmCancellationTwiceIsBenign(t *testing.T) {
	env := newMockEnv(t)
	env.mock.ExpectBegin()
	env.expectTicket(5, 9, "CANCELLED")
	env.mock.ExpectRollback()

	svc := NewCancellationService(env.store, env.opts)
	_, err := svc.ConfirmCancellation(context.Background(), ConfirmCancellationInput{
		TicketID: 5, AdminID: 77,
	})
	assert.ErrorIs(t, err, ErrNotPendingCancellation)
	assert.NoError(t, env.mock.ExpectationsWereMet())
	svc.Wait()
	assert.Empty(t, env.publisher.confirmed)
}

func TestConfirmCancellationLostRace(t *testing.T) {
	env := newMockEnv(t)
	env.mock.ExpectBegin()
	env.expectTicket(5, 9, "PENDING_CANCELLATION")
	env.mock.ExpectExec("UPDATE tickets SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	env.mock.ExpectRollback()

	_, err := NewCancellationService(env.store, env.opts).ConfirmCancellation(context.Background(), ConfirmCancellationInput{
		TicketID: 5, AdminID: 77,
	})
	assert.ErrorIs(t, err, ErrNotPendingCancellation)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestConfirmCancellationRequiresAdmin(t *testing.T) {
	env := newMockEnv(t)
	_, err := NewCancellationService(env.store, env.opts).ConfirmCancellation(context.Background(), ConfirmCancellationInput{TicketID: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuditTrail(t *testing.T) {
	env := newMockEnv(t)
	env.expectTicket(5, 9, "CANCELLED")
	env.mock.ExpectQuery("FROM cancellation_audit").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "admin_id", "action", "from_status", "to_status", "created_at"}).
			AddRow(1, 5, 77, "CONFIRM_CANCELLATION", "PENDING_CANCELLATION", "CANCELLED", fixedNow))

	entries, err := NewCancellationService(env.store, env.opts).AuditTrail(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(77), entries[0].AdminID)
	assert.Equal(t, model.TicketCancelled, entries[0].ToStatus)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAuditTrailUnknownTicket(t *testing.T) {
	env := newMockEnv(t)
	env.mock.ExpectQuery("FROM tickets").WithArgs(6).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewCancellationService(env.store, env.opts).AuditTrail(context.Background(), 6)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
