package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/metrics"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/notify"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/occupancy"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

type mockStore struct {
	mock.Mock
	db *sql.DB
}

func (m *mockStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return m.db.BeginTx(ctx, nil)
}

func (m *mockStore) DaySchedule(ctx context.Context, weekday time.Weekday) (models.DaySchedule, error) {
	args := m.Called(ctx, weekday)
	return args.Get(0).(models.DaySchedule), args.Error(1)
}

func (m *mockStore) WeeklySchedule(ctx context.Context) ([]models.DaySchedule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DaySchedule), args.Error(1)
}

func (m *mockStore) SaveDaySchedule(ctx context.Context, day models.DaySchedule) error {
	return m.Called(ctx, day).Error(0)
}

func (m *mockStore) Policy(ctx context.Context) (models.Policy, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Policy), args.Error(1)
}

func (m *mockStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockStore) CreateClient(ctx context.Context, tx *sql.Tx, c *models.Client) (string, error) {
	args := m.Called(ctx, tx, c)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetBarber(ctx context.Context, id string) (*models.Barber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Barber), args.Error(1)
}

func (m *mockStore) GetServices(ctx context.Context, ids []string) ([]models.Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *mockStore) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockStore) ActiveSubscription(ctx context.Context, clientID string) (*models.Subscription, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockStore) ListActivePublicBookings(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error) {
	args := m.Called(ctx, win, barberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]occupancy.Occupied), args.Error(1)
}

func (m *mockStore) ListActiveAppointments(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error) {
	args := m.Called(ctx, win, barberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]occupancy.Occupied), args.Error(1)
}

func (m *mockStore) ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error) {
	args := m.Called(ctx, date, barberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduleBlock), args.Error(1)
}

func (m *mockStore) ListAppointmentSpans(ctx context.Context, win clock.Window, barberID *string) ([]models.AppointmentSpan, error) {
	args := m.Called(ctx, win, barberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppointmentSpan), args.Error(1)
}

func (m *mockStore) HasActivePublicBookingAt(ctx context.Context, barberID string, instant time.Time) (bool, error) {
	args := m.Called(ctx, barberID, instant)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) HasActiveAppointmentAt(ctx context.Context, barberID string, instant time.Time) (bool, error) {
	args := m.Called(ctx, barberID, instant)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreatePublicBooking(ctx context.Context, tx *sql.Tx, b *models.PublicBooking) (string, error) {
	args := m.Called(ctx, tx, b)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetPublicBooking(ctx context.Context, id string) (*models.PublicBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicBooking), args.Error(1)
}

func (m *mockStore) UpdatePublicBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) CreateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) (string, error) {
	args := m.Called(ctx, tx, a)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockStore) UpdateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) error {
	return m.Called(ctx, tx, a).Error(0)
}

func (m *mockStore) CreateBlock(ctx context.Context, tx *sql.Tx, b *models.ScheduleBlock) (string, error) {
	args := m.Called(ctx, tx, b)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetBlock(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduleBlock), args.Error(1)
}

func (m *mockStore) DeleteBlock(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fakeLocker struct {
	acquired bool
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return f.acquired, nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key string) error {
	return nil
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, recipient string, b notify.Booking) error {
	return nil
}

type fixture struct {
	store  *mockStore
	sqlm   sqlmock.Sqlmock
	locker *fakeLocker
	svc    *Service
}

// Monday 2026-03-09 10:00 local. Slots resolve against UTC-4.
var testNow = time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, sqlm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &mockStore{db: db}
	locker := &fakeLocker{acquired: true}

	clk := clock.NewAt(func() time.Time { return testNow })
	m := metrics.NewWith(prometheus.NewRegistry(), "test")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := notify.New(noopSender{}, log, m)

	return &fixture{
		store:  store,
		sqlm:   sqlm,
		locker: locker,
		svc:    NewService(store, locker, clk, notifier, m),
	}
}

func (f *fixture) expectNoConflicts(barberID string, instant time.Time) {
	f.store.On("HasActivePublicBookingAt", mock.Anything, barberID, instant).Return(false, nil)
	f.store.On("HasActiveAppointmentAt", mock.Anything, barberID, instant).Return(false, nil)
	f.store.On("ListBlocks", mock.Anything, mock.Anything, mock.Anything).Return([]models.ScheduleBlock{}, nil)
}

func TestCreateBooking_HappyPath(t *testing.T) {
	f := newFixture(t)

	// 14:00 local on the booking date = 18:00 UTC
	instant := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	f.store.On("GetServices", mock.Anything, []string{"svc-corte"}).Return([]models.Service{
		{ID: "svc-corte", Name: "Corte", PriceCents: 3000, DurationMin: 30, Active: true},
	}, nil)
	f.store.On("GetBarber", mock.Anything, "b1").Return(&models.Barber{
		ID: "b1", Name: "Jhon", CommissionPercent: 40,
	}, nil)
	f.expectNoConflicts("b1", instant)
	f.store.On("GetClient", mock.Anything, "c1").Return(&models.Client{
		ID: "c1", Name: "Ana", Phone: "+5511999990000",
	}, nil)
	f.store.On("ActiveSubscription", mock.Anything, "c1").Return(nil, nil)

	var created *models.PublicBooking
	f.store.On("CreatePublicBooking", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(2).(*models.PublicBooking)
		}).
		Return("pb1", nil)
	f.store.On("GetPublicBooking", mock.Anything, "pb1").
		Return(&models.PublicBooking{
			ID:       "pb1",
			ClientID: "c1",
			BarberID: "b1",
			Instant:  instant,
			Status:   models.BookingPending,
			Charge:   models.Charge{TotalCents: 3000, ServicesCents: 3000, CommissionCents: 1200, WorkedMinNormal: 30},
		}, nil)

	f.sqlm.ExpectBegin()
	f.sqlm.ExpectCommit()

	resp, err := f.svc.CreateBooking(context.Background(), &api.BookingCreateRequest{
		ClientID:   "c1",
		BarberID:   "b1",
		Date:       "2026-03-10",
		Time:       "14:00",
		ServiceIDs: []string{"svc-corte"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pb1", resp.ID)
	assert.Equal(t, string(models.BookingPending), resp.Status)
	assert.Equal(t, "2026-03-10", resp.Date)
	assert.Equal(t, "14:00", resp.Time)

	require.NotNil(t, created)
	assert.Equal(t, instant, created.Instant)
	assert.Equal(t, int64(3000), created.Charge.TotalCents)
	assert.Equal(t, int64(1200), created.Charge.CommissionCents)
	assert.Equal(t, 30, created.Charge.WorkedMinNormal)

	f.store.AssertExpectations(t)
	assert.NoError(t, f.sqlm.ExpectationsWereMet())
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	f := newFixture(t)

	instant := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	f.store.On("GetServices", mock.Anything, mock.Anything).Return([]models.Service{
		{ID: "svc-corte", Name: "Corte", PriceCents: 3000, DurationMin: 30, Active: true},
	}, nil)
	f.store.On("GetBarber", mock.Anything, "b1").Return(&models.Barber{ID: "b1"}, nil)
	f.store.On("HasActivePublicBookingAt", mock.Anything, "b1", instant).Return(true, nil)

	f.sqlm.ExpectBegin()
	f.sqlm.ExpectRollback()

	_, err := f.svc.CreateBooking(context.Background(), &api.BookingCreateRequest{
		ClientID:   "c1",
		BarberID:   "b1",
		Date:       "2026-03-10",
		Time:       "14:00",
		ServiceIDs: []string{"svc-corte"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrSlotTaken)
	assert.Equal(t, response.SourceOccupied, response.TakenSource(err))
	assert.NoError(t, f.sqlm.ExpectationsWereMet())
}

func TestCreateBooking_LockContention(t *testing.T) {
	f := newFixture(t)
	f.locker.acquired = false

	_, err := f.svc.CreateBooking(context.Background(), &api.BookingCreateRequest{
		ClientID:   "c1",
		BarberID:   "b1",
		Date:       "2026-03-10",
		Time:       "14:00",
		ServiceIDs: []string{"svc-corte"},
	})
	assert.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateBooking_NoServices(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), &api.BookingCreateRequest{
		ClientID: "c1",
		Date:     "2026-03-10",
		Time:     "14:00",
	})
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestCompleteAppointment_RecomputesAndFreezes(t *testing.T) {
	f := newFixture(t)

	scheduled := &models.Appointment{
		ID:       "ap1",
		ClientID: "c1",
		BarberID: "b1",
		Instant:  time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		Status:   models.AppointmentScheduled,
		Services: []models.ServiceLine{
			{ServiceID: "svc-corte", Name: "Corte", PriceCents: 3000, DurationMin: 30},
		},
		Charge: models.Charge{TotalCents: 3000, ServicesCents: 3000, CommissionCents: 1200, WorkedMinNormal: 30},
	}

	f.store.On("GetAppointment", mock.Anything, "ap1").Return(scheduled, nil).Once()
	f.store.On("GetBarber", mock.Anything, "b1").Return(&models.Barber{
		ID: "b1", CommissionPercent: 40,
	}, nil)
	f.store.On("ActiveSubscription", mock.Anything, "c1").Return(nil, nil)

	var updated *models.Appointment
	f.store.On("UpdateAppointment", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updated = args.Get(2).(*models.Appointment)
		}).
		Return(nil)
	f.store.On("GetAppointment", mock.Anything, "ap1").Return(scheduled, nil).Once()

	f.sqlm.ExpectBegin()
	f.sqlm.ExpectCommit()

	_, err := f.svc.CompleteAppointment(context.Background(), "ap1")
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.Equal(t, models.AppointmentCompleted, updated.Status)
	assert.Equal(t, int64(3000), updated.Charge.TotalCents)
	assert.Equal(t, int64(1200), updated.Charge.CommissionCents)
}

func TestCompleteAppointment_RejectsCancelled(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetAppointment", mock.Anything, "ap1").Return(&models.Appointment{
		ID:     "ap1",
		Status: models.AppointmentCancelled,
	}, nil)

	_, err := f.svc.CompleteAppointment(context.Background(), "ap1")
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestReviseAppointment_RejectsCompleted(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetAppointment", mock.Anything, "ap1").Return(&models.Appointment{
		ID:     "ap1",
		Status: models.AppointmentCompleted,
	}, nil)

	_, err := f.svc.ReviseAppointment(context.Background(), "ap1", &api.ReviseRequest{
		Services: []api.ServiceSelection{{ServiceID: "svc-corte"}},
	})
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestCancelAppointment_VoidsCommission(t *testing.T) {
	f := newFixture(t)

	appt := &models.Appointment{
		ID:       "ap1",
		ClientID: "c1",
		BarberID: "b1",
		Status:   models.AppointmentScheduled,
		Charge:   models.Charge{TotalCents: 3000, CommissionCents: 1200},
	}

	f.store.On("GetAppointment", mock.Anything, "ap1").Return(appt, nil)

	var updated *models.Appointment
	f.store.On("UpdateAppointment", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updated = args.Get(2).(*models.Appointment)
		}).
		Return(nil)

	f.sqlm.ExpectBegin()
	f.sqlm.ExpectCommit()

	_, err := f.svc.CancelAppointment(context.Background(), "ap1")
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.Equal(t, models.AppointmentCancelled, updated.Status)
	assert.Equal(t, int64(0), updated.Charge.CommissionCents)
	assert.Equal(t, int64(3000), updated.Charge.TotalCents)
}

func TestCreateBlock_RejectsOverlappingAppointment(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetBarber", mock.Anything, "b1").Return(&models.Barber{ID: "b1"}, nil)
	// appointment 10:15 local for 30 min overlaps a 10:00-11:00 block
	f.store.On("ListAppointmentSpans", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.AppointmentSpan{
			{Start: time.Date(2026, 3, 10, 14, 15, 0, 0, time.UTC), DurationMin: 30},
		}, nil)

	f.sqlm.ExpectBegin()
	f.sqlm.ExpectRollback()

	_, err := f.svc.CreateBlock(context.Background(), &api.BlockRequest{
		BarberID:  "b1",
		Date:      "2026-03-10",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrSlotTaken)
}

func TestUpdateDaySchedule_RegeneratesGrid(t *testing.T) {
	f := newFixture(t)

	f.store.On("Policy", mock.Anything).Return(models.Policy{
		SlotGranularityMin: 30, MaxAdvanceDays: 30, MinNoticeHours: 2,
	}, nil)

	var saved models.DaySchedule
	f.store.On("SaveDaySchedule", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(models.DaySchedule)
		}).
		Return(nil)

	resp, err := f.svc.UpdateDaySchedule(context.Background(), "monday", &api.DayScheduleRequest{
		Enabled:   true,
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, resp.Slots)
	assert.Equal(t, time.Monday, saved.Weekday)
	assert.True(t, saved.Enabled)
}
