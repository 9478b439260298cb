package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/notify"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/pricing"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// CreateAppointment is the staff-entered write path. Unlike the public
// flow, a barber is mandatory and prices can be overridden per line.
func (s *Service) CreateAppointment(ctx context.Context, req *api.AppointmentCreateRequest) (*api.AppointmentResponse, error) {
	const op = "service.CreateAppointment"

	if req.BarberID == "" {
		return nil, fmt.Errorf("%s: barber_id is required: %w", op, response.ErrValidation)
	}
	if len(req.Services) == 0 {
		return nil, fmt.Errorf("%s: at least one service is required: %w", op, response.ErrValidation)
	}

	instant, err := s.parseInstant(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	barber, err := s.store.GetBarber(ctx, req.BarberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serviceLines, err := s.buildServiceLines(ctx, req.Services)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	productLines, err := s.buildProductLines(ctx, req.Products)
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
		Services:     serviceLines,
		Products:     productLines,
		Barber:       *barber,
		Subscription: sub,
		ManualTotal:  req.ManualTotal,
	})
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	appt := &models.Appointment{
		ID:            uuid.NewString(),
		ClientID:      client.ID,
		BarberID:      req.BarberID,
		Instant:       instant,
		Status:        models.AppointmentScheduled,
		PaymentMethod: req.PaymentMethod,
		Services:      serviceLines,
		Products:      productLines,
		ManualTotal:   req.ManualTotal,
		Charge:        charge,
	}

	apptID, err := s.store.CreateAppointment(ctx, tx, appt)
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

	s.metrics.BookingsCreated.WithLabelValues(string(models.SourceStaffEntered)).Inc()

	go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), notify.Booking{
		BookingID:      apptID,
		ClientName:     client.Name,
		ClientPhone:    client.Phone,
		ServiceSummary: serviceSummary(serviceLines),
		PriceCents:     charge.TotalCents,
		BarberName:     barber.Name,
		Instant:        instant,
	})

	return s.GetAppointment(ctx, apptID)
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error) {
	const op = "service.GetAppointment"

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.toAppointmentResponse(appt), nil
}

// CompleteAppointment runs the final recompute and freezes the totals.
// Completed is terminal for pricing: later edits never re-run it.
func (s *Service) CompleteAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error) {
	const op = "service.CompleteAppointment"

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if appt.Status != models.AppointmentScheduled {
		return nil, fmt.Errorf("%s: only scheduled appointments can be completed: %w", op, response.ErrValidation)
	}

	charge, err := s.recompute(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	appt.Charge = charge
	appt.Status = models.AppointmentCompleted

	if err := s.updateInTx(ctx, appt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

// ReviseAppointment replaces the billable content (services, products,
// barber, manual override) of a scheduled appointment and reprices it.
func (s *Service) ReviseAppointment(ctx context.Context, id string, req *api.ReviseRequest) (*api.AppointmentResponse, error) {
	const op = "service.ReviseAppointment"

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if appt.Status != models.AppointmentScheduled {
		return nil, fmt.Errorf("%s: completed or cancelled appointments cannot be revised: %w", op, response.ErrValidation)
	}

	if len(req.Services) == 0 {
		return nil, fmt.Errorf("%s: at least one service is required: %w", op, response.ErrValidation)
	}

	serviceLines, err := s.buildServiceLines(ctx, req.Services)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	productLines, err := s.buildProductLines(ctx, req.Products)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.BarberID != nil {
		if _, err := s.store.GetBarber(ctx, *req.BarberID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appt.BarberID = *req.BarberID
	}

	appt.Services = serviceLines
	appt.Products = productLines
	appt.ManualTotal = req.ManualTotal

	charge, err := s.recompute(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	appt.Charge = charge

	if err := s.updateInTx(ctx, appt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

// RescheduleAppointment moves a scheduled appointment to a new instant.
// Pricing is untouched; only the slot changes, so only the guard runs.
func (s *Service) RescheduleAppointment(ctx context.Context, req *api.RescheduleRequest) (*api.AppointmentResponse, error) {
	const op = "service.RescheduleAppointment"

	appt, err := s.store.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if appt.Status != models.AppointmentScheduled {
		return nil, fmt.Errorf("%s: only scheduled appointments can be rescheduled: %w", op, response.ErrValidation)
	}

	instant, err := s.parseInstant(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockKey := slotLockKey(appt.BarberID, instant)
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

	if err := s.guard.AssertBookable(ctx, appt.BarberID, instant); err != nil {
		if errors.Is(err, response.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues(response.TakenSource(err)).Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	appt.Instant = instant

	if err := s.updateInTx(ctx, appt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, req.AppointmentID)
}

// CancelAppointment frees the slot and voids the commission. The priced
// line breakdown stays on record.
func (s *Service) CancelAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error) {
	const op = "service.CancelAppointment"

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if appt.Status == models.AppointmentCancelled {
		return s.GetAppointment(ctx, id)
	}

	appt.Status = models.AppointmentCancelled
	appt.Charge.CommissionCents = 0

	if err := s.updateInTx(ctx, appt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

func (s *Service) recompute(ctx context.Context, appt *models.Appointment) (models.Charge, error) {
	barber, err := s.store.GetBarber(ctx, appt.BarberID)
	if err != nil {
		return models.Charge{}, err
	}

	sub, err := s.store.ActiveSubscription(ctx, appt.ClientID)
	if err != nil {
		return models.Charge{}, err
	}

	return pricing.Price(pricing.Input{
		Services:     appt.Services,
		Products:     appt.Products,
		Barber:       *barber,
		Subscription: sub,
		ManualTotal:  appt.ManualTotal,
	})
}

func (s *Service) updateInTx(ctx context.Context, appt *models.Appointment) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.UpdateAppointment(ctx, tx, appt); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Service) buildServiceLines(ctx context.Context, sels []api.ServiceSelection) ([]models.ServiceLine, error) {
	ids := make([]string, 0, len(sels))
	overrides := make(map[string]*int64, len(sels))
	for _, sel := range sels {
		ids = append(ids, sel.ServiceID)
		overrides[sel.ServiceID] = sel.PriceCents
	}

	catalog, err := s.store.GetServices(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.ServiceLine, 0, len(catalog))
	for _, svc := range catalog {
		price := svc.PriceCents
		if o := overrides[svc.ID]; o != nil {
			price = *o
		}
		lines = append(lines, models.ServiceLine{
			ServiceID:   svc.ID,
			Name:        svc.Name,
			PriceCents:  price,
			DurationMin: svc.DurationMin,
		})
	}

	return lines, nil
}

func (s *Service) buildProductLines(ctx context.Context, sels []api.ProductSelection) ([]models.ProductLine, error) {
	if len(sels) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(sels))
	qty := make(map[string]int, len(sels))
	for _, sel := range sels {
		ids = append(ids, sel.ProductID)
		qty[sel.ProductID] = sel.Qty
	}

	catalog, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.ProductLine, 0, len(catalog))
	for _, p := range catalog {
		lines = append(lines, models.ProductLine{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.UnitPriceCents,
			Qty:            qty[p.ID],
		})
	}

	return lines, nil
}

func (s *Service) toAppointmentResponse(a *models.Appointment) *api.AppointmentResponse {
	date := s.clk.LocalDate(a.Instant)
	_, hhmm := s.clk.LocalDayAndTime(a.Instant)

	return &api.AppointmentResponse{
		ID:            a.ID,
		ClientID:      a.ClientID,
		BarberID:      a.BarberID,
		Instant:       a.Instant,
		Date:          clock.FormatDate(date),
		Time:          hhmm,
		Status:        string(a.Status),
		PaymentMethod: a.PaymentMethod,
		Services:      a.Services,
		Products:      a.Products,
		ManualTotal:   a.ManualTotal,
		Charge:        a.Charge,
	}
}
