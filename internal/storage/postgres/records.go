package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// #### public bookings ####

func (s *Storage) CreatePublicBooking(ctx context.Context, tx *sql.Tx, b *models.PublicBooking) (string, error) {
	const op = "storage.postgres.CreatePublicBooking"

	_, err := tx.ExecContext(ctx, `
		INSERT INTO public_bookings (
			id, client_id, barber_id, instant, status,
			total_cents, services_cents, products_cents, commission_cents,
			worked_min_normal, worked_min_sub, subscription_billing
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.ClientID, nullStr(b.BarberID), b.Instant, string(b.Status),
		b.Charge.TotalCents, b.Charge.ServicesCents, b.Charge.ProductsCents, b.Charge.CommissionCents,
		b.Charge.WorkedMinNormal, b.Charge.WorkedMinSub, b.Charge.SubscriptionBilling,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, slotTaken(err))
	}

	for i, line := range b.Services {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_services (booking_id, ord, service_id, name, price_cents, duration_min)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, i, line.ServiceID, line.Name, line.PriceCents, line.DurationMin,
		)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	return b.ID, nil
}

func (s *Storage) GetPublicBooking(ctx context.Context, id string) (*models.PublicBooking, error) {
	const op = "storage.postgres.GetPublicBooking"

	var b models.PublicBooking
	var barberID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, barber_id, instant, status,
			total_cents, services_cents, products_cents, commission_cents,
			worked_min_normal, worked_min_sub, subscription_billing, created_at
		FROM public_bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.ClientID, &barberID, &b.Instant, &b.Status,
		&b.Charge.TotalCents, &b.Charge.ServicesCents, &b.Charge.ProductsCents, &b.Charge.CommissionCents,
		&b.Charge.WorkedMinNormal, &b.Charge.WorkedMinSub, &b.Charge.SubscriptionBilling, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.BarberID = barberID.String

	b.Services, err = s.serviceLines(ctx, "booking_services", "booking_id", id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (s *Storage) UpdatePublicBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdatePublicBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE public_bookings SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### staff appointments ####

func (s *Storage) CreateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) (string, error) {
	const op = "storage.postgres.CreateAppointment"

	_, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (
			id, client_id, barber_id, instant, status, payment_method, manual_total_cents,
			total_cents, services_cents, products_cents, commission_cents,
			worked_min_normal, worked_min_sub, subscription_billing
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.ClientID, a.BarberID, a.Instant, string(a.Status), a.PaymentMethod, a.ManualTotal,
		a.Charge.TotalCents, a.Charge.ServicesCents, a.Charge.ProductsCents, a.Charge.CommissionCents,
		a.Charge.WorkedMinNormal, a.Charge.WorkedMinSub, a.Charge.SubscriptionBilling,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, slotTaken(err))
	}

	if err := insertAppointmentLines(ctx, tx, a); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return a.ID, nil
}

func (s *Storage) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "storage.postgres.GetAppointment"

	var a models.Appointment

	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, barber_id, instant, status, payment_method, manual_total_cents,
			total_cents, services_cents, products_cents, commission_cents,
			worked_min_normal, worked_min_sub, subscription_billing, created_at, updated_at
		FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.ClientID, &a.BarberID, &a.Instant, &a.Status, &a.PaymentMethod, &a.ManualTotal,
		&a.Charge.TotalCents, &a.Charge.ServicesCents, &a.Charge.ProductsCents, &a.Charge.CommissionCents,
		&a.Charge.WorkedMinNormal, &a.Charge.WorkedMinSub, &a.Charge.SubscriptionBilling,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Services, err = s.serviceLines(ctx, "appointment_services", "appointment_id", id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price_cents, qty
		FROM appointment_products WHERE appointment_id = $1 ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.ProductLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.UnitPriceCents, &line.Qty); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.Products = append(a.Products, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &a, nil
}

// UpdateAppointment rewrites the row and both line tables wholesale. The
// service layer owns which fields changed; storage does not diff.
func (s *Storage) UpdateAppointment(ctx context.Context, tx *sql.Tx, a *models.Appointment) error {
	const op = "storage.postgres.UpdateAppointment"

	res, err := tx.ExecContext(ctx, `
		UPDATE appointments SET
			barber_id = $1, instant = $2, status = $3, payment_method = $4, manual_total_cents = $5,
			total_cents = $6, services_cents = $7, products_cents = $8, commission_cents = $9,
			worked_min_normal = $10, worked_min_sub = $11, subscription_billing = $12,
			updated_at = now()
		WHERE id = $13`,
		a.BarberID, a.Instant, string(a.Status), a.PaymentMethod, a.ManualTotal,
		a.Charge.TotalCents, a.Charge.ServicesCents, a.Charge.ProductsCents, a.Charge.CommissionCents,
		a.Charge.WorkedMinNormal, a.Charge.WorkedMinSub, a.Charge.SubscriptionBilling,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, slotTaken(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appointment_services WHERE appointment_id = $1`, a.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appointment_products WHERE appointment_id = $1`, a.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := insertAppointmentLines(ctx, tx, a); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func insertAppointmentLines(ctx context.Context, tx *sql.Tx, a *models.Appointment) error {
	for i, line := range a.Services {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointment_services (appointment_id, ord, service_id, name, price_cents, duration_min)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, i, line.ServiceID, line.Name, line.PriceCents, line.DurationMin,
		)
		if err != nil {
			return err
		}
	}

	for i, line := range a.Products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointment_products (appointment_id, ord, product_id, name, unit_price_cents, qty)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, i, line.ProductID, line.Name, line.UnitPriceCents, line.Qty,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Storage) serviceLines(ctx context.Context, table, fk, id string) ([]models.ServiceLine, error) {
	query := fmt.Sprintf(
		`SELECT service_id, name, price_cents, duration_min FROM %s WHERE %s = $1 ORDER BY ord`,
		table, fk,
	)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.ServiceLine
	for rows.Next() {
		var line models.ServiceLine
		if err := rows.Scan(&line.ServiceID, &line.Name, &line.PriceCents, &line.DurationMin); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// #### schedule blocks ####

func (s *Storage) CreateBlock(ctx context.Context, tx *sql.Tx, b *models.ScheduleBlock) (string, error) {
	const op = "storage.postgres.CreateBlock"

	_, err := tx.ExecContext(ctx, `
		INSERT INTO schedule_blocks (id, barber_id, date, start_time, end_time, reason)
		VALUES ($1, $2, $3::date, $4, $5, $6)`,
		b.ID, b.BarberID, b.Date, b.StartTime, b.EndTime, b.Reason,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return b.ID, nil
}

func (s *Storage) GetBlock(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	const op = "storage.postgres.GetBlock"

	var b models.ScheduleBlock

	err := s.db.QueryRowContext(ctx, `
		SELECT id, barber_id, date, start_time, end_time, reason
		FROM schedule_blocks WHERE id = $1`, id,
	).Scan(&b.ID, &b.BarberID, &b.Date, &b.StartTime, &b.EndTime, &b.Reason)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (s *Storage) DeleteBlock(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlock"

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedule_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
