package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/occupancy"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// slotTaken maps a unique-index violation on (barber_id, instant) to the
// domain conflict error. The index is the backstop behind the redis lock.
func slotTaken(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &response.SlotTakenError{Source: response.SourceOccupied}
	}
	return err
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// #### weekly schedule & policy ####

func (s *Storage) DaySchedule(ctx context.Context, weekday time.Weekday) (models.DaySchedule, error) {
	const op = "storage.postgres.DaySchedule"

	day := models.DaySchedule{Weekday: weekday}

	err := s.db.QueryRowContext(ctx,
		`SELECT enabled, slots FROM weekly_schedule WHERE weekday = $1`,
		int(weekday),
	).Scan(&day.Enabled, pq.Array(&day.Slots))
	if err != nil {
		if err == sql.ErrNoRows {
			// unconfigured weekday reads as disabled
			return day, nil
		}
		return day, fmt.Errorf("%s: %w", op, err)
	}

	return day, nil
}

func (s *Storage) WeeklySchedule(ctx context.Context) ([]models.DaySchedule, error) {
	const op = "storage.postgres.WeeklySchedule"

	rows, err := s.db.QueryContext(ctx,
		`SELECT weekday, enabled, slots FROM weekly_schedule ORDER BY weekday`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var days []models.DaySchedule
	for rows.Next() {
		var day models.DaySchedule
		var wd int
		if err := rows.Scan(&wd, &day.Enabled, pq.Array(&day.Slots)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		day.Weekday = time.Weekday(wd)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return days, nil
}

func (s *Storage) SaveDaySchedule(ctx context.Context, day models.DaySchedule) error {
	const op = "storage.postgres.SaveDaySchedule"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_schedule (weekday, enabled, slots)
		VALUES ($1, $2, $3)
		ON CONFLICT (weekday)
		DO UPDATE SET enabled = EXCLUDED.enabled, slots = EXCLUDED.slots`,
		int(day.Weekday), day.Enabled, pq.Array(day.Slots),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Policy(ctx context.Context) (models.Policy, error) {
	const op = "storage.postgres.Policy"

	var p models.Policy

	err := s.db.QueryRowContext(ctx,
		`SELECT slot_granularity_min, max_advance_days, min_notice_hours FROM booking_policy`,
	).Scan(&p.SlotGranularityMin, &p.MaxAdvanceDays, &p.MinNoticeHours)
	if err != nil {
		if err == sql.ErrNoRows {
			// seed defaults, kept in sync with schema.sql
			return models.Policy{SlotGranularityMin: 30, MaxAdvanceDays: 30, MinNoticeHours: 2}, nil
		}
		return p, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// #### catalog ####

func (s *Storage) GetClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "storage.postgres.GetClient"

	var c models.Client

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

func (s *Storage) CreateClient(ctx context.Context, tx *sql.Tx, c *models.Client) (string, error) {
	const op = "storage.postgres.CreateClient"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO clients (id, name, phone, email) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Phone, c.Email,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return c.ID, nil
}

func (s *Storage) GetBarber(ctx context.Context, id string) (*models.Barber, error) {
	const op = "storage.postgres.GetBarber"

	var b models.Barber

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, commission_percent, hourly_rate_cents FROM barbers WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Phone, &b.CommissionPercent, &b.HourlyRateCents)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (s *Storage) GetServices(ctx context.Context, ids []string) ([]models.Service, error) {
	const op = "storage.postgres.GetServices"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price_cents, duration_min, active
		FROM services
		WHERE id = ANY($1) AND active`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	byID := make(map[string]models.Service, len(ids))
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.PriceCents, &svc.DurationMin, &svc.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byID[svc.ID] = svc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// preserve request order, reject unknown ids
	result := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s: service %s: %w", op, id, response.ErrNotFound)
		}
		result = append(result, svc)
	}

	return result, nil
}

func (s *Storage) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	const op = "storage.postgres.GetProducts"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit_price_cents, active
		FROM products
		WHERE id = ANY($1) AND active`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	byID := make(map[string]models.Product, len(ids))
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPriceCents, &p.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s: product %s: %w", op, id, response.ErrNotFound)
		}
		result = append(result, p)
	}

	return result, nil
}

func (s *Storage) ActiveSubscription(ctx context.Context, clientID string) (*models.Subscription, error) {
	const op = "storage.postgres.ActiveSubscription"

	var sub models.Subscription

	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, status, included_services, monthly_price_cents, started_at, ended_at
		FROM subscriptions
		WHERE client_id = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1`,
		clientID, string(models.SubscriptionActive),
	).Scan(&sub.ID, &sub.ClientID, &sub.Status, pq.Array(&sub.IncludedServices),
		&sub.MonthlyPriceCents, &sub.StartedAt, &sub.EndedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sub, nil
}

// #### occupancy reads ####

func (s *Storage) ListActivePublicBookings(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error) {
	const op = "storage.postgres.ListActivePublicBookings"

	return s.listOccupied(ctx, op, "public_bookings", win, barberID)
}

func (s *Storage) ListActiveAppointments(ctx context.Context, win clock.Window, barberID *string) ([]occupancy.Occupied, error) {
	const op = "storage.postgres.ListActiveAppointments"

	return s.listOccupied(ctx, op, "appointments", win, barberID)
}

func (s *Storage) listOccupied(ctx context.Context, op, table string, win clock.Window, barberID *string) ([]occupancy.Occupied, error) {
	query := `SELECT instant, COALESCE(barber_id, '') FROM ` + table + `
		WHERE status <> 'CANCELLED' AND instant >= $1 AND instant < $2`
	args := []any{win.Start, win.End}

	if barberID != nil {
		query += ` AND barber_id = $3`
		args = append(args, *barberID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var occ []occupancy.Occupied
	for rows.Next() {
		var o occupancy.Occupied
		if err := rows.Scan(&o.Instant, &o.BarberID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		occ = append(occ, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return occ, nil
}

func (s *Storage) ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error) {
	const op = "storage.postgres.ListBlocks"

	query := `SELECT id, barber_id, date, start_time, end_time, reason
		FROM schedule_blocks WHERE date = $1::date`
	args := []any{date}

	if barberID != nil {
		query += ` AND barber_id = $2`
		args = append(args, *barberID)
	}

	rows, err := s.db.QueryContext(ctx, query+` ORDER BY start_time`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var blocks []models.ScheduleBlock
	for rows.Next() {
		var b models.ScheduleBlock
		if err := rows.Scan(&b.ID, &b.BarberID, &b.Date, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return blocks, nil
}

func (s *Storage) ListAppointmentSpans(ctx context.Context, win clock.Window, barberID *string) ([]models.AppointmentSpan, error) {
	const op = "storage.postgres.ListAppointmentSpans"

	query := `
		SELECT a.instant, COALESCE(SUM(l.duration_min), 0)
		FROM appointments a
		LEFT JOIN appointment_services l ON l.appointment_id = a.id
		WHERE a.status <> 'CANCELLED' AND a.instant >= $1 AND a.instant < $2`
	args := []any{win.Start, win.End}

	if barberID != nil {
		query += ` AND a.barber_id = $3`
		args = append(args, *barberID)
	}
	query += ` GROUP BY a.id, a.instant`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var spans []models.AppointmentSpan
	for rows.Next() {
		var sp models.AppointmentSpan
		if err := rows.Scan(&sp.Start, &sp.DurationMin); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		spans = append(spans, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spans, nil
}

func (s *Storage) HasActivePublicBookingAt(ctx context.Context, barberID string, instant time.Time) (bool, error) {
	const op = "storage.postgres.HasActivePublicBookingAt"

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM public_bookings
			WHERE barber_id = $1 AND instant = $2 AND status <> 'CANCELLED'
		)`,
		barberID, instant,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) HasActiveAppointmentAt(ctx context.Context, barberID string, instant time.Time) (bool, error) {
	const op = "storage.postgres.HasActiveAppointmentAt"

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE barber_id = $1 AND instant = $2 AND status <> 'CANCELLED'
		)`,
		barberID, instant,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}
