package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moacyfilho/jhonjhon-adm-sub001/api"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/clock"
	"github.com/moacyfilho/jhonjhon-adm-sub001/internal/models"
	"github.com/moacyfilho/jhonjhon-adm-sub001/pkg/response"
)

// CreateBlock reserves an explicit exclusion interval for one barber.
// Existing appointments inside the window reject the block wholesale.
func (s *Service) CreateBlock(ctx context.Context, req *api.BlockRequest) (*api.BlockResponse, error) {
	const op = "service.CreateBlock"

	if req.BarberID == "" {
		return nil, fmt.Errorf("%s: barber_id is required: %w", op, response.ErrValidation)
	}

	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startMin, err := clock.MinutesOfDay(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endMin, err := clock.MinutesOfDay(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endMin <= startMin {
		return nil, fmt.Errorf("%s: end_time must be after start_time: %w", op, response.ErrValidation)
	}

	if _, err := s.store.GetBarber(ctx, req.BarberID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.guard.AssertBlockFree(ctx, req.BarberID, date, req.StartTime, req.EndTime); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues(response.TakenSource(err)).Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	block := &models.ScheduleBlock{
		ID:        uuid.NewString(),
		BarberID:  req.BarberID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}

	blockID, err := s.store.CreateBlock(ctx, tx, block)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBlock(ctx, blockID)
}

func (s *Service) GetBlock(ctx context.Context, id string) (*api.BlockResponse, error) {
	const op = "service.GetBlock"

	block, err := s.store.GetBlock(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBlockResponse(block), nil
}

func (s *Service) ListBlocks(ctx context.Context, dateStr string, barberID *string) ([]*api.BlockResponse, error) {
	const op = "service.ListBlocks"

	date, err := clock.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blocks, err := s.store.ListBlocks(ctx, date, barberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BlockResponse, 0, len(blocks))
	for i := range blocks {
		result = append(result, toBlockResponse(&blocks[i]))
	}

	return result, nil
}

func (s *Service) DeleteBlock(ctx context.Context, id string) error {
	const op = "service.DeleteBlock"

	if err := s.store.DeleteBlock(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toBlockResponse(b *models.ScheduleBlock) *api.BlockResponse {
	return &api.BlockResponse{
		ID:        b.ID,
		BarberID:  b.BarberID,
		Date:      clock.FormatDate(b.Date),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Reason:    b.Reason,
	}
}

// weekday ordering for the week schedule response, Monday first.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}
