package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// Provider reads the per-business weekly grid and booking policy.
// Writes are whole-day replacements, there is no partial slot editing.
type Provider interface {
	DaySchedule(ctx context.Context, weekday time.Weekday) (models.DaySchedule, error)
	WeeklySchedule(ctx context.Context) ([]models.DaySchedule, error)
	SaveDaySchedule(ctx context.Context, day models.DaySchedule) error
	Policy(ctx context.Context) (models.Policy, error)
}

// BuildDaySlots enumerates the slot grid for one day by fixed steps:
// slot[i] = start + i*granularity, stopping strictly before end.
func BuildDaySlots(start, end string, granularityMin int) ([]string, error) {
	const op = "schedule.BuildDaySlots"

	if granularityMin <= 0 {
		return nil, fmt.Errorf("%s: granularity must be positive: %w", op, response.ErrValidation)
	}

	startMin, err := clock.MinutesOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	endMin, err := clock.MinutesOfDay(end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if endMin <= startMin {
		return nil, fmt.Errorf("%s: end must be after start: %w", op, response.ErrValidation)
	}

	var slots []string
	for cur := startMin; cur < endMin; cur += granularityMin {
		slots = append(slots, clock.FormatClockTime(cur))
	}

	return slots, nil
}

// ValidateDaySlots enforces the day invariant: strictly increasing,
// unique, well-formed "HH:MM" values.
func ValidateDaySlots(slots []string) error {
	const op = "schedule.ValidateDaySlots"

	prev := -1
	for _, s := range slots {
		min, err := clock.MinutesOfDay(s)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if min <= prev {
			return fmt.Errorf("%s: slots must be strictly increasing: %w", op, response.ErrValidation)
		}
		prev = min
	}

	return nil
}

// ValidatePolicy rejects configs the engine cannot work with.
func ValidatePolicy(p models.Policy) error {
	const op = "schedule.ValidatePolicy"

	if p.SlotGranularityMin <= 0 {
		return fmt.Errorf("%s: slot granularity must be positive: %w", op, response.ErrValidation)
	}
	if p.MaxAdvanceDays < 0 {
		return fmt.Errorf("%s: max advance days must not be negative: %w", op, response.ErrValidation)
	}
	if p.MinNoticeHours < 0 {
		return fmt.Errorf("%s: min notice hours must not be negative: %w", op, response.ErrValidation)
	}

	return nil
}
