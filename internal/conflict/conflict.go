package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/occupancy"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// Store is the slice of persistence the guard needs. Point lookups hit
// the (barber, instant) index; the span query feeds block overlap checks.
type Store interface {
	HasActivePublicBookingAt(ctx context.Context, barberID string, instant time.Time) (bool, error)
	HasActiveAppointmentAt(ctx context.Context, barberID string, instant time.Time) (bool, error)
	ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error)
	ListAppointmentSpans(ctx context.Context, win clock.Window, barberID *string) ([]models.AppointmentSpan, error)
}

// Guard re-checks all three reservation sources synchronously before any
// write commits. This is check-then-act: the race window between check
// and insert is closed by the storage uniqueness constraint, and callers
// treat that late conflict identically to the guard's own rejection.
type Guard struct {
	clk   *clock.Business
	store Store
}

func New(clk *clock.Business, store Store) *Guard {
	return &Guard{clk: clk, store: store}
}

// AssertBookable fails with SlotTakenError when the exact instant is
// already reserved for the barber. Barber-agnostic requests (empty
// barberID) are never checked against any specific barber's occupancy;
// assignment happens later, staff-side.
func (g *Guard) AssertBookable(ctx context.Context, barberID string, instant time.Time) error {
	const op = "conflict.Guard.AssertBookable"

	if barberID == "" {
		return nil
	}

	taken, err := g.store.HasActivePublicBookingAt(ctx, barberID, instant)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return fmt.Errorf("%s: %w", op, &response.SlotTakenError{Source: response.SourceOccupied})
	}

	taken, err = g.store.HasActiveAppointmentAt(ctx, barberID, instant)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return fmt.Errorf("%s: %w", op, &response.SlotTakenError{Source: response.SourceOccupied})
	}

	blocked, err := g.instantBlocked(ctx, barberID, instant)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if blocked {
		return fmt.Errorf("%s: %w", op, &response.SlotTakenError{Source: response.SourceBlocked})
	}

	return nil
}

func (g *Guard) instantBlocked(ctx context.Context, barberID string, instant time.Time) (bool, error) {
	_, hhmm := g.clk.LocalDayAndTime(instant)
	date := g.clk.LocalDate(instant)

	blocks, err := g.store.ListBlocks(ctx, date, &barberID)
	if err != nil {
		return false, err
	}

	for _, b := range blocks {
		iv := occupancy.Interval{Start: b.StartTime, End: b.EndTime}
		covered, err := iv.Covers(hhmm)
		if err != nil {
			return false, err
		}
		if covered {
			return true, nil
		}
	}

	return false, nil
}

// AssertBlockFree rejects a new block when any active appointment's
// service interval [start, start+duration) overlaps the block window.
// Point equality is not enough: an appointment inside the window
// conflicts even if it does not start at the block's start.
func (g *Guard) AssertBlockFree(ctx context.Context, barberID string, date time.Time, startHHMM, endHHMM string) error {
	const op = "conflict.Guard.AssertBlockFree"

	blockStart, err := g.clk.SlotToUTC(date, startHHMM)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	blockEnd, err := g.clk.SlotToUTC(date, endHHMM)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !blockEnd.After(blockStart) {
		return fmt.Errorf("%s: block end must be after start: %w", op, response.ErrValidation)
	}

	spans, err := g.store.ListAppointmentSpans(ctx, g.clk.DayWindow(date), &barberID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, span := range spans {
		spanEnd := span.Start.Add(time.Duration(span.DurationMin) * time.Minute)
		// Half-open overlap: [a,b) x [c,d) iff a < d && c < b.
		if span.Start.Before(blockEnd) && blockStart.Before(spanEnd) {
			return fmt.Errorf("%s: %w", op, &response.SlotTakenError{Source: response.SourceOccupied})
		}
	}

	return nil
}
