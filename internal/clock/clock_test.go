package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) *Business {
	return NewAt(func() time.Time { return t })
}

func TestLocalToUTC_FixedOffset(t *testing.T) {
	c := New()

	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // a Monday
	utc := c.LocalToUTC(date, 9, 30)

	// UTC = local + 4h
	assert.Equal(t, time.Date(2026, 3, 9, 13, 30, 0, 0, time.UTC), utc)
}

func TestLocalDayAndTime_CrossesMidnight(t *testing.T) {
	c := New()

	// 02:00 UTC is 22:00 the previous local day.
	utc := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	wd, hhmm := c.LocalDayAndTime(utc)

	assert.Equal(t, time.Monday, wd)
	assert.Equal(t, "22:00", hhmm)
}

func TestDayWindow(t *testing.T) {
	c := New()

	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	win := c.DayWindow(date)

	assert.Equal(t, time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC), win.Start)
	assert.Equal(t, time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC), win.End)

	assert.True(t, win.Contains(win.Start))
	assert.False(t, win.Contains(win.End))
}

func TestToday_UsesLocalCalendar(t *testing.T) {
	// 01:30 UTC on the 10th is still the 9th locally.
	c := fixed(time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC))

	today := c.Today()
	assert.Equal(t, 9, today.Day())
	assert.Equal(t, time.March, today.Month())
}

func TestSlotToUTC_RoundTrips(t *testing.T) {
	c := New()

	date, err := ParseDate("2026-03-09")
	require.NoError(t, err)

	utc, err := c.SlotToUTC(date, "10:00")
	require.NoError(t, err)

	wd, hhmm := c.LocalDayAndTime(utc)
	assert.Equal(t, time.Monday, wd)
	assert.Equal(t, "10:00", hhmm)
}

func TestParseClockTime_Invalid(t *testing.T) {
	_, _, err := ParseClockTime("25:00")
	assert.Error(t, err)

	_, _, err = ParseClockTime("nope")
	assert.Error(t, err)
}

func TestMinutesOfDay(t *testing.T) {
	min, err := MinutesOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, min)

	assert.Equal(t, "09:30", FormatClockTime(570))
}
