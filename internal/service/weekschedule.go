package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/schedule"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// GetWeekSchedule returns the full weekly grid plus the booking policy.
func (s *Service) GetWeekSchedule(ctx context.Context) (*api.WeekScheduleResponse, error) {
	const op = "service.GetWeekSchedule"

	days, err := s.store.WeeklySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	policy, err := s.store.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byDay := make(map[time.Weekday]models.DaySchedule, len(days))
	for _, d := range days {
		byDay[d.Weekday] = d
	}

	resp := &api.WeekScheduleResponse{
		Policy: api.PolicyResponse{
			SlotGranularityMin: policy.SlotGranularityMin,
			MaxAdvanceDays:     policy.MaxAdvanceDays,
			MinNoticeHours:     policy.MinNoticeHours,
		},
	}

	for _, wd := range weekdays {
		day := byDay[wd]
		resp.Days = append(resp.Days, api.DayScheduleResponse{
			Weekday: strings.ToLower(wd.String()),
			Enabled: day.Enabled,
			Slots:   day.Slots,
		})
	}

	return resp, nil
}

// UpdateDaySchedule replaces one weekday wholesale: the slot grid is
// regenerated from the window and the policy granularity, never edited
// slot by slot.
func (s *Service) UpdateDaySchedule(ctx context.Context, weekdayStr string, req *api.DayScheduleRequest) (*api.DayScheduleResponse, error) {
	const op = "service.UpdateDaySchedule"

	wd, ok := parseWeekdayFlexible(weekdayStr)
	if !ok {
		return nil, fmt.Errorf("%s: invalid weekday %q: %w", op, weekdayStr, response.ErrValidation)
	}

	day := models.DaySchedule{Weekday: wd, Enabled: req.Enabled}

	if req.Enabled {
		if req.StartTime == "" || req.EndTime == "" {
			return nil, fmt.Errorf("%s: start_time and end_time are required for an enabled day: %w", op, response.ErrValidation)
		}

		policy, err := s.store.Policy(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slots, err := schedule.BuildDaySlots(req.StartTime, req.EndTime, policy.SlotGranularityMin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		day.Slots = slots
	}

	if err := s.store.SaveDaySchedule(ctx, day); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.DayScheduleResponse{
		Weekday: strings.ToLower(wd.String()),
		Enabled: day.Enabled,
		Slots:   day.Slots,
	}, nil
}

// parseWeekdayFlexible accepts the formats clients actually send:
// "mon", "monday", "Mon", "1", "0" and so on (0 = Sunday).
func parseWeekdayFlexible(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
