package clock

import (
	"fmt"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// The shop operates in a single fixed-offset timezone (UTC-4, no DST).
// Every conversion between local wall time and UTC instants goes through
// this package so the offset lives in exactly one place.
const offsetHours = -4

var location = time.FixedZone("UTC-4", offsetHours*60*60)

// Business is the time source for the whole engine. The now func is
// injectable so availability and notice-window logic is testable.
type Business struct {
	now func() time.Time
}

func New() *Business {
	return &Business{now: time.Now}
}

func NewAt(now func() time.Time) *Business {
	return &Business{now: now}
}

// Now returns the current instant in UTC.
func (c *Business) Now() time.Time {
	return c.now().UTC()
}

// Today returns the current local calendar date at local midnight.
func (c *Business) Today() time.Time {
	local := c.now().In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}

// LocalDate returns the local calendar date of a UTC instant, at local
// midnight.
func (c *Business) LocalDate(utc time.Time) time.Time {
	local := utc.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}

// LocalDayAndTime converts a UTC instant to the local weekday and "HH:MM".
func (c *Business) LocalDayAndTime(utc time.Time) (time.Weekday, string) {
	local := utc.In(location)
	return local.Weekday(), local.Format("15:04")
}

// LocalToUTC anchors a local wall time on the given calendar date and
// returns the UTC instant (UTC = local + 4h).
func (c *Business) LocalToUTC(date time.Time, hour, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, location).UTC()
}

// SlotToUTC is LocalToUTC for an "HH:MM" slot string.
func (c *Business) SlotToUTC(date time.Time, slot string) (time.Time, error) {
	h, m, err := ParseClockTime(slot)
	if err != nil {
		return time.Time{}, err
	}
	return c.LocalToUTC(date, h, m), nil
}

// Window is a half-open UTC interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow returns the UTC window covering the whole local day.
func (c *Business) DayWindow(date time.Time) Window {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location).UTC()
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// ParseClockTime parses a zero-padded "HH:MM" string.
func ParseClockTime(s string) (hour, min int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", s, response.ErrValidation)
	}
	return t.Hour(), t.Minute(), nil
}

// MinutesOfDay converts "HH:MM" to minutes since local midnight.
func MinutesOfDay(s string) (int, error) {
	h, m, err := ParseClockTime(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatClockTime renders minutes since midnight as "HH:MM".
func FormatClockTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a "YYYY-MM-DD" calendar date. The returned value is
// anchored at local midnight so weekday math matches the business day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, response.ErrValidation)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location), nil
}

// FormatDate renders the calendar date of a local-midnight value.
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
