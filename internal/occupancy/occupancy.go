package occupancy

import (
	"context"
	"fmt"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
)

// Occupied is one normalized taken instant, whatever table it came from.
type Occupied struct {
	Instant  time.Time // UTC
	BarberID string
}

// Source is a single table of active reservations. The aggregator takes
// a list of these instead of hardcoding the public-booking and staff-
// appointment queries, so a fourth source is one append away.
type Source interface {
	ListActive(ctx context.Context, win clock.Window, barberID *string) ([]Occupied, error)
}

// SourceFunc adapts a plain store method to Source.
type SourceFunc func(ctx context.Context, win clock.Window, barberID *string) ([]Occupied, error)

func (f SourceFunc) ListActive(ctx context.Context, win clock.Window, barberID *string) ([]Occupied, error) {
	return f(ctx, win, barberID)
}

// BlockSource lists explicit exclusion intervals for a local date. Blocks
// stay intervals rather than discrete slots: one block may span several
// slots or a fraction of one.
type BlockSource interface {
	ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error)
}

type BlockSourceFunc func(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error)

func (f BlockSourceFunc) ListBlocks(ctx context.Context, date time.Time, barberID *string) ([]models.ScheduleBlock, error) {
	return f(ctx, date, barberID)
}

// Interval is a blocked [Start, End) span in local wall time.
type Interval struct {
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// Aggregator merges the heterogeneous reservation tables into one
// read-time view. No merged table exists anywhere; this is recomputed
// per query.
type Aggregator struct {
	clk     *clock.Business
	sources []Source
	blocks  BlockSource
}

func NewAggregator(clk *clock.Business, blocks BlockSource, sources ...Source) *Aggregator {
	return &Aggregator{clk: clk, sources: sources, blocks: blocks}
}

// OccupiedTimes returns the deduplicated set of local "HH:MM" values
// taken on the given date. Two sources landing on the same slot is
// expected and collapses to one entry.
func (a *Aggregator) OccupiedTimes(ctx context.Context, date time.Time, barberID *string) (map[string]struct{}, error) {
	const op = "occupancy.Aggregator.OccupiedTimes"

	win := a.clk.DayWindow(date)
	taken := make(map[string]struct{})

	for _, src := range a.sources {
		rows, err := src.ListActive(ctx, win, barberID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, row := range rows {
			_, hhmm := a.clk.LocalDayAndTime(row.Instant)
			taken[hhmm] = struct{}{}
		}
	}

	return taken, nil
}

// BlockedIntervals returns the raw exclusion intervals for the date.
func (a *Aggregator) BlockedIntervals(ctx context.Context, date time.Time, barberID *string) ([]Interval, error) {
	const op = "occupancy.Aggregator.BlockedIntervals"

	blocks, err := a.blocks.ListBlocks(ctx, date, barberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	intervals := make([]Interval, 0, len(blocks))
	for _, b := range blocks {
		intervals = append(intervals, Interval{Start: b.StartTime, End: b.EndTime})
	}

	return intervals, nil
}

// Covers reports whether the interval contains the given wall time,
// half-open: start is blocked, end is not.
func (iv Interval) Covers(hhmm string) (bool, error) {
	t, err := clock.MinutesOfDay(hhmm)
	if err != nil {
		return false, err
	}
	start, err := clock.MinutesOfDay(iv.Start)
	if err != nil {
		return false, err
	}
	end, err := clock.MinutesOfDay(iv.End)
	if err != nil {
		return false, err
	}
	return t >= start && t < end, nil
}
