package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Storage{db: db}, mock
}

func TestPolicy(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT slot_granularity_min, max_advance_days, min_notice_hours FROM booking_policy`).
		WillReturnRows(sqlmock.NewRows([]string{"slot_granularity_min", "max_advance_days", "min_notice_hours"}).
			AddRow(30, 30, 2))

	p, err := s.Policy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Policy{SlotGranularityMin: 30, MaxAdvanceDays: 30, MinNoticeHours: 2}, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDaySchedule_UnconfiguredReadsDisabled(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT enabled, slots FROM weekly_schedule WHERE weekday = \$1`).
		WithArgs(int(time.Tuesday)).
		WillReturnRows(sqlmock.NewRows([]string{"enabled", "slots"}))

	day, err := s.DaySchedule(context.Background(), time.Tuesday)
	require.NoError(t, err)
	assert.False(t, day.Enabled)
	assert.Empty(t, day.Slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasActiveAppointmentAt(t *testing.T) {
	s, mock := newMockStorage(t)

	instant := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("b1", instant).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := s.HasActiveAppointmentAt(context.Background(), "b1", instant)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBarber_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT id, name, phone, commission_percent, hourly_rate_cents FROM barbers`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "commission_percent", "hourly_rate_cents"}))

	_, err := s.GetBarber(context.Background(), "missing")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestCreatePublicBooking_UniqueViolationIsSlotTaken(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO public_bookings`).
		WillReturnError(&pq.Error{Code: "23505"})

	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)

	booking := &models.PublicBooking{
		ID:       "pb1",
		ClientID: "c1",
		BarberID: "b1",
		Instant:  time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC),
		Status:   models.BookingPending,
	}

	_, err = s.CreatePublicBooking(context.Background(), tx, booking)
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrSlotTaken)
	assert.Equal(t, response.SourceOccupied, response.TakenSource(err))
}

func TestListActivePublicBookings_BarberFilter(t *testing.T) {
	s, mock := newMockStorage(t)

	win := clock.Window{
		Start: time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
	}
	barber := "b1"

	mock.ExpectQuery(`SELECT instant, COALESCE\(barber_id, ''\) FROM public_bookings`).
		WithArgs(win.Start, win.End, barber).
		WillReturnRows(sqlmock.NewRows([]string{"instant", "barber_id"}).
			AddRow(time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), "b1"))

	occ, err := s.ListActivePublicBookings(context.Background(), win, &barber)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, "b1", occ[0].BarberID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePublicBookingStatus_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(`UPDATE public_bookings SET status`).
		WithArgs(string(models.BookingCancelled), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdatePublicBookingStatus(context.Background(), "missing", models.BookingCancelled)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestDeleteBlock(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(`DELETE FROM schedule_blocks WHERE id = \$1`).
		WithArgs("blk1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.DeleteBlock(context.Background(), "blk1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
