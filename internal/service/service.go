package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/availability"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/conflict"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/lock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/metrics"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/notify"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/occupancy"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/pricing"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

const slotLockTTL = 10 * time.Second

type Service struct {
	store    Store
	locker   lock.Locker
	clk      *clock.Business
	guard    *conflict.Guard
	avail    *availability.Calculator
	notifier *notify.Notifier
	metrics  *metrics.Metrics
}

func NewService(store Store, locker lock.Locker, clk *clock.Business, notifier *notify.Notifier, m *metrics.Metrics) *Service {
	agg := occupancy.NewAggregator(clk,
		occupancy.BlockSourceFunc(store.ListBlocks),
		occupancy.SourceFunc(store.ListActivePublicBookings),
		occupancy.SourceFunc(store.ListActiveAppointments),
	)

	return &Service{
		store:    store,
		locker:   locker,
		clk:      clk,
		guard:    conflict.New(clk, store),
		avail:    availability.New(clk, store, agg),
		notifier: notifier,
		metrics:  m,
	}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Weekly schedule & policy
	DaySchedule(ctx context.Context, weekday time.Weekday) (models.DaySchedule, error)
	WeeklySchedule(ctx context.Context) ([]models.DaySchedule, error)
	SaveDaySchedule(ctx context.Context, day models.DaySchedule) error
	Policy(ctx context.Context) (models.Policy, error)

	// Catalog
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, tx *sql.Tx, c *models.Client) (string, error)
	GetBarber(ctx context.Context, id string) (*models.Barber, error)
	GetServices(ctx context.Context, ids []string) ([]models.Service, error)
	GetProducts(ctx context.Context, ids []string) ([]models.Product, error)
	ActiveSubscription(ctx context.Context, clientID string) (*models.Subscription, error)

	// Occupancy reads
	ListActivePublicBookings(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error)
	ListActiveAppointments(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error)
	ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error)
	ListAppointmentSpans(ctx context.Context, win clock.Window, barberID *string) ([]models.AppointmentSpan, error)
	HasActivePublicBookingAt(ctx context.Context, barberID string, instant time.Time) (bool, error)
	HasActiveAppointmentAt(ctx context.Context, barberID string, instant time.Time) (bool, error)

	// Public bookings
	CreatePublicBooking(ctx context.Context, tx *sql.Tx, b *models.PublicBooking) (string, error)
	GetPublicBooking(ctx context.Context, id string) (*models.PublicBooking, error)
	UpdatePublicBookingStatus(ctx context.Context, id string, status models.BookingStatus) error

	// Staff appointments
	CreateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) (string, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) error

	// Schedule blocks
	CreateBlock(ctx context.Context, tx *sql.Tx, b *models.ScheduleBlock) (string, error)
	GetBlock(ctx context.Context, id string) (*models.ScheduleBlock, error)
	DeleteBlock(ctx context.Context, id string) error
}

// AvailableSlots is the read side of the engine: the annotated grid for
// one date, optionally narrowed to one barber.
func (s *Service) AvailableSlots(ctx context.Context, dateStr string, barberID *string) ([]availability.Slot, error) {
	const op = "service.AvailableSlots"

	date, err := clock.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.avail.Slots(ctx, date, barberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.AvailabilityQueries.Inc()

	return slots, nil
}

// CreateBooking handles a public-online booking request. The redis lock
// narrows the check-then-act window; the storage uniqueness constraint
// closes it.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	if len(req.ServiceIDs) == 0 {
		return nil, fmt.Errorf("%s: at least one service is required: %w", op, response.ErrValidation)
	}

	instant, err := s.parseInstant(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockKey := slotLockKey(req.BarberID, instant)
	locked, err := s.locker.Lock(ctx, lockKey, slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	catalog, err := s.store.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lines := make([]models.ServiceLine, 0, len(catalog))
	for _, svc := range catalog {
		lines = append(lines, models.ServiceLine{
			ServiceID:   svc.ID,
			Name:        svc.Name,
			PriceCents:  svc.PriceCents,
			DurationMin: svc.DurationMin,
		})
	}

	var barber models.Barber
	if req.BarberID != "" {
		b, err := s.store.GetBarber(ctx, req.BarberID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		barber = *b
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.guard.AssertBookable(ctx, req.BarberID, instant); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues(response.TakenSource(err)).Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := s.resolveClient(ctx, tx, req.ClientID, req.NewClient)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub, err := s.store.ActiveSubscription(ctx, client.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	charge, err := pricing.Price(pricing.Input{
		Services:     lines,
		Barber:       barber,
		Subscription: sub,
	})
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking := &models.PublicBooking{
		ID:       uuid.NewString(),
		ClientID: client.ID,
		BarberID: req.BarberID,
		Instant:  instant,
		Status:   models.BookingPending,
		Services: lines,
		Charge:   charge,
	}

	bookingID, err := s.store.CreatePublicBooking(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues(response.TakenSource(err)).Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	s.metrics.BookingsCreated.WithLabelValues(string(models.SourcePublicOnline)).Inc()

	go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), notify.Booking{
		BookingID:      bookingID,
		ClientName:     client.Name,
		ClientPhone:    client.Phone,
		ServiceSummary: serviceSummary(lines),
		PriceCents:     charge.TotalCents,
		BarberName:     barber.Name,
		Instant:        instant,
	})

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetPublicBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.toBookingResponse(booking), nil
}

func (s *Service) ConfirmBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	if err := s.store.UpdatePublicBookingStatus(ctx, id, models.BookingConfirmed); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}

// CancelBooking frees the slot: occupancy is derived from status, so the
// status flip is all it takes.
func (s *Service) CancelBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	if err := s.store.UpdatePublicBookingStatus(ctx, id, models.BookingCancelled); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}

func (s *Service) parseInstant(dateStr, timeStr string) (time.Time, error) {
	date, err := clock.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return s.clk.SlotToUTC(date, timeStr)
}

func (s *Service) resolveClient(ctx context.Context, tx *sql.Tx, clientID string, nc *api.NewClient) (*models.Client, error) {
	if clientID != "" {
		return s.store.GetClient(ctx, clientID)
	}

	if nc == nil || nc.Name == "" || nc.Phone == "" {
		return nil, fmt.Errorf("client_id or new_client name and phone are required: %w", response.ErrValidation)
	}

	client := &models.Client{
		ID:    uuid.NewString(),
		Name:  nc.Name,
		Phone: nc.Phone,
		Email: nc.Email,
	}

	if _, err := s.store.CreateClient(ctx, tx, client); err != nil {
		return nil, err
	}

	return client, nil
}

func slotLockKey(barberID string, instant time.Time) string {
	if barberID == "" {
		barberID = "any"
	}
	return fmt.Sprintf("%s:%d", barberID, instant.Unix())
}

func serviceSummary(lines []models.ServiceLine) string {
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func (s *Service) toBookingResponse(b *models.PublicBooking) *api.BookingResponse {
	date := s.clk.LocalDate(b.Instant)
	_, hhmm := s.clk.LocalDayAndTime(b.Instant)

	return &api.BookingResponse{
		ID:       b.ID,
		ClientID: b.ClientID,
		BarberID: b.BarberID,
		Instant:  b.Instant,
		Date:     clock.FormatDate(date),
		Time:     hhmm,
		Status:   string(b.Status),
		Services: b.Services,
		Charge:   b.Charge,
	}
}
