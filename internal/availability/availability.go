package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/occupancy"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/schedule"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

const (
	ReasonOccupied = "occupied"
	ReasonBlocked  = "blocked"
	ReasonPast     = "past"
)

// Slot is one per-slot verdict. Reason is empty when Available.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Calculator combines the weekly grid, the merged occupancy view and the
// current time into annotated slots for one date.
type Calculator struct {
	clk   *clock.Business
	sched schedule.Provider
	occ   *occupancy.Aggregator
}

func New(clk *clock.Business, sched schedule.Provider, occ *occupancy.Aggregator) *Calculator {
	return &Calculator{clk: clk, sched: sched, occ: occ}
}

// Slots returns the annotated grid for the date. Disabled or unconfigured
// days yield an empty list, not an error. Reasons are mutually exclusive
// and checked occupied -> blocked -> past; the first match wins.
func (c *Calculator) Slots(ctx context.Context, date time.Time, barberID *string) ([]Slot, error) {
	const op = "availability.Calculator.Slots"

	policy, err := c.sched.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := c.clk.Today()
	if date.Before(today) || date.After(today.AddDate(0, 0, policy.MaxAdvanceDays)) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrDateOutOfRange)
	}

	day, err := c.sched.DaySchedule(ctx, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !day.Enabled || len(day.Slots) == 0 {
		return []Slot{}, nil
	}

	taken, err := c.occ.OccupiedTimes(ctx, date, barberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blocked, err := c.occ.BlockedIntervals(ctx, date, barberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	isToday := date.Equal(today)
	noticeLimit := c.clk.Now().Add(time.Duration(policy.MinNoticeHours) * time.Hour)

	result := make([]Slot, 0, len(day.Slots))
	for _, hhmm := range day.Slots {
		slot := Slot{Time: hhmm, Available: true}

		switch {
		case isTaken(taken, hhmm):
			slot.Available = false
			slot.Reason = ReasonOccupied
		case coveredByAny(blocked, hhmm):
			slot.Available = false
			slot.Reason = ReasonBlocked
		case isToday:
			instant, err := c.clk.SlotToUTC(date, hhmm)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			// A slot exactly at now+notice is still bookable.
			if instant.Before(noticeLimit) {
				slot.Available = false
				slot.Reason = ReasonPast
			}
		}

		result = append(result, slot)
	}

	return result, nil
}

func isTaken(taken map[string]struct{}, hhmm string) bool {
	_, ok := taken[hhmm]
	return ok
}

func coveredByAny(intervals []occupancy.Interval, hhmm string) bool {
	for _, iv := range intervals {
		covered, err := iv.Covers(hhmm)
		if err != nil {
			continue
		}
		if covered {
			return true
		}
	}
	return false
}
