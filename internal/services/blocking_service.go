package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/schedule"
)

// BlockingService manages a coach's one-off and weekly recurring blocked
// windows. Blockings only subtract availability; they never touch existing
// bookings.
type BlockingService struct {
	blockingRepo *repository.BlockingRepository
}

func NewBlockingService(blockingRepo *repository.BlockingRepository) *BlockingService {
	return &BlockingService{blockingRepo: blockingRepo}
}

type CreateBlockingInput struct {
	BlockedDate string
	StartTime   string
	EndTime     string
	Reason      *string
}

func (s *BlockingService) CreateBlocking(
	ctx context.Context,
	coachID int64,
	input CreateBlockingInput,
) (*models.Blocking, error) {
	date := strings.TrimSpace(input.BlockedDate)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: blocked_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	start, end, err := parseWindowTimes(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	return s.blockingRepo.Create(ctx, repository.CreateBlockingInput{
		CoachID:     coachID,
		BlockedDate: date,
		StartTime:   start.String(),
		EndTime:     end.String(),
		Reason:      trimReason(input.Reason),
	})
}

func (s *BlockingService) ListBlockings(ctx context.Context, coachID int64) ([]models.Blocking, error) {
	return s.blockingRepo.ListByCoach(ctx, coachID)
}

func (s *BlockingService) DeleteBlocking(ctx context.Context, coachID, blockingID int64) error {
	return s.blockingRepo.Delete(ctx, coachID, blockingID)
}

type CreateRecurringBlockingInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
	Reason    *string
}

func (s *BlockingService) CreateRecurringBlocking(
	ctx context.Context,
	coachID int64,
	input CreateRecurringBlockingInput,
) (*models.RecurringBlocking, error) {
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week must be 0 (Sunday) through 6 (Saturday)", ErrInvalidInput)
	}
	start, end, err := parseWindowTimes(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	return s.blockingRepo.CreateRecurring(ctx, repository.CreateRecurringBlockingInput{
		CoachID:   coachID,
		DayOfWeek: input.DayOfWeek,
		StartTime: start.String(),
		EndTime:   end.String(),
		Reason:    trimReason(input.Reason),
	})
}

func (s *BlockingService) ListRecurringBlockings(ctx context.Context, coachID int64) ([]models.RecurringBlocking, error) {
	return s.blockingRepo.ListRecurringByCoach(ctx, coachID)
}

func (s *BlockingService) DeleteRecurringBlocking(ctx context.Context, coachID, recurringID int64) error {
	return s.blockingRepo.DeleteRecurring(ctx, coachID, recurringID)
}

func parseWindowTimes(startValue, endValue string) (schedule.TimeOfDay, schedule.TimeOfDay, error) {
	start, err := schedule.ParseTimeOfDay(startValue)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start_time must be HH:MM", ErrInvalidInput)
	}
	end, err := schedule.ParseTimeOfDay(endValue)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end_time must be HH:MM", ErrInvalidInput)
	}
	if _, err := schedule.NewWindow(start, end); err != nil {
		return 0, 0, fmt.Errorf("%w: start_time must be before end_time", ErrInvalidInput)
	}
	return start, end, nil
}

func trimReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
