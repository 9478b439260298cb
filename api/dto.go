package api

import (
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
)

// NewClient carries walk-in client fields when no client_id exists yet.
type NewClient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// ServiceSelection picks a catalog service, optionally overriding the
// price charged for this visit.
type ServiceSelection struct {
	ServiceID  string `json:"service_id"`
	PriceCents *int64 `json:"price_cents,omitempty"`
}

type ProductSelection struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// BookingCreateRequest is the public-online booking write surface.
// BarberID may be empty ("any barber").
type BookingCreateRequest struct {
	ClientID   string     `json:"client_id,omitempty"`
	NewClient  *NewClient `json:"new_client,omitempty"`
	BarberID   string     `json:"barber_id,omitempty"`
	Date       string     `json:"date"` // "2006-01-02", local
	Time       string     `json:"time"` // "HH:MM", local
	ServiceIDs []string   `json:"service_ids"`
}

type BookingResponse struct {
	ID       string               `json:"id"`
	ClientID string               `json:"client_id"`
	BarberID string               `json:"barber_id,omitempty"`
	Instant  time.Time            `json:"instant"`
	Date     string               `json:"date"`
	Time     string               `json:"time"`
	Status   string               `json:"status"`
	Services []models.ServiceLine `json:"services"`
	Charge   models.Charge        `json:"charge"`
}

// AppointmentCreateRequest is the staff-entered write surface.
type AppointmentCreateRequest struct {
	ClientID      string             `json:"client_id,omitempty"`
	NewClient     *NewClient         `json:"new_client,omitempty"`
	BarberID      string             `json:"barber_id"`
	Date          string             `json:"date"`
	Time          string             `json:"time"`
	Services      []ServiceSelection `json:"services"`
	Products      []ProductSelection `json:"products,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	ManualTotal   *int64             `json:"manual_total_cents,omitempty"`
}

type AppointmentResponse struct {
	ID            string               `json:"id"`
	ClientID      string               `json:"client_id"`
	BarberID      string               `json:"barber_id"`
	Instant       time.Time            `json:"instant"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"payment_method,omitempty"`
	Services      []models.ServiceLine `json:"services"`
	Products      []models.ProductLine `json:"products,omitempty"`
	ManualTotal   *int64               `json:"manual_total_cents,omitempty"`
	Charge        models.Charge        `json:"charge"`
}

// ReviseRequest replaces the appointment's billable content before
// completion and triggers a recompute.
type ReviseRequest struct {
	BarberID    *string            `json:"barber_id,omitempty"`
	Services    []ServiceSelection `json:"services"`
	Products    []ProductSelection `json:"products,omitempty"`
	ManualTotal *int64             `json:"manual_total_cents,omitempty"`
}

type RescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type BlockRequest struct {
	BarberID  string `json:"barber_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
	Reason    string `json:"reason,omitempty"`
}

type BlockResponse struct {
	ID        string `json:"id"`
	BarberID  string `json:"barber_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// DayScheduleRequest is a whole-day replacement: the slot grid is
// regenerated from the window and the policy granularity.
type DayScheduleRequest struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type DayScheduleResponse struct {
	Weekday string   `json:"weekday"`
	Enabled bool     `json:"enabled"`
	Slots   []string `json:"slots"`
}

type PolicyResponse struct {
	SlotGranularityMin int `json:"slot_granularity_minutes"`
	MaxAdvanceDays     int `json:"max_advance_days"`
	MinNoticeHours     int `json:"minimum_notice_hours"`
}

type WeekScheduleResponse struct {
	Days   []DayScheduleResponse `json:"days"`
	Policy PolicyResponse        `json:"policy"`
}
