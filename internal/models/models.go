package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Active means the row still occupies its slot. Completed stays active:
// a finished visit must not free the slot for a repeat query of that day.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled
}

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

func (s AppointmentStatus) Active() bool {
	return s != AppointmentCancelled
}

type SourceKind string

const (
	SourcePublicOnline SourceKind = "public_online"
	SourceStaffEntered SourceKind = "staff_entered"
)

type SubscriptionStatus string

const (
	SubscriptionActive SubscriptionStatus = "ACTIVE"
	SubscriptionEnded  SubscriptionStatus = "ENDED"
)

type Client struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Phone string `db:"phone"`
	Email string `db:"email"`
}

type Barber struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	Phone             string  `db:"phone"`
	CommissionPercent float64 `db:"commission_percent"`
	HourlyRateCents   int64   `db:"hourly_rate_cents"`
}

type Service struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	PriceCents  int64  `db:"price_cents"`
	DurationMin int    `db:"duration_min"`
	Active      bool   `db:"active"`
}

type Product struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	UnitPriceCents int64  `db:"unit_price_cents"`
	Active         bool   `db:"active"`
}

type Subscription struct {
	ID                string             `db:"id"`
	ClientID          string             `db:"client_id"`
	Status            SubscriptionStatus `db:"status"`
	IncludedServices  []string           `db:"included_services"`
	MonthlyPriceCents int64              `db:"monthly_price_cents"`
	StartedAt         time.Time          `db:"started_at"`
	EndedAt           *time.Time         `db:"ended_at"`
}

// ServiceLine is a service as booked, with the price the staff actually
// charged (may differ from the catalog price).
type ServiceLine struct {
	ServiceID   string `json:"service_id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	DurationMin int    `json:"duration_min"`
}

type ProductLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
}

// PublicBooking is a slot reservation made through the public site.
// BarberID may be empty: the client left the barber choice to the shop.
type PublicBooking struct {
	ID        string
	ClientID  string
	BarberID  string
	Instant   time.Time // UTC
	Status    BookingStatus
	Services  []ServiceLine
	Charge    Charge
	CreatedAt time.Time
}

// Appointment is a staff-entered visit with the full billing breakdown.
type Appointment struct {
	ID            string
	ClientID      string
	BarberID      string
	Instant       time.Time // UTC
	Status        AppointmentStatus
	PaymentMethod string
	Services      []ServiceLine
	Products      []ProductLine
	ManualTotal   *int64
	Charge        Charge
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Charge is the money split finalized at booking time and recomputed
// only by explicit commands until the appointment completes.
type Charge struct {
	TotalCents          int64 `json:"total_cents"`
	ServicesCents       int64 `json:"services_cents"`
	ProductsCents       int64 `json:"products_cents"`
	CommissionCents     int64 `json:"commission_cents"`
	WorkedMinNormal     int   `json:"worked_min_normal"`
	WorkedMinSub        int   `json:"worked_min_subscription"`
	SubscriptionBilling bool  `json:"subscription_billing"`
}

func (a *Appointment) TotalDurationMin() int {
	total := 0
	for _, s := range a.Services {
		total += s.DurationMin
	}
	return total
}

// AppointmentSpan is the occupied interval of an appointment, used for
// block overlap checks. Appointments occupy an interval, not an instant.
type AppointmentSpan struct {
	Start       time.Time // UTC
	DurationMin int
}

// ScheduleBlock is an explicit exclusion interval for one barber on one
// local date, independent of bookings.
type ScheduleBlock struct {
	ID        string
	BarberID  string
	Date      time.Time // local calendar date, time part ignored
	StartTime string    // "HH:MM"
	EndTime   string    // "HH:MM", strictly after StartTime
	Reason    string
}

// DaySchedule is one weekday of the fixed weekly grid. Slots are only
// meaningful when Enabled; they are strictly increasing and unique.
type DaySchedule struct {
	Weekday time.Weekday
	Enabled bool
	Slots   []string // "HH:MM"
}

type Policy struct {
	SlotGranularityMin int
	MaxAdvanceDays     int
	MinNoticeHours     int
}
