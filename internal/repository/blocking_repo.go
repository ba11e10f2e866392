package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
)

type BlockingRepository struct {
	db DBTX
}

func NewBlockingRepository(db DBTX) *BlockingRepository {
	return &BlockingRepository{db: db}
}

type CreateBlockingInput struct {
	CoachID     int64
	BlockedDate string
	StartTime   string
	EndTime     string
	Reason      *string
}

func (r *BlockingRepository) Create(ctx context.Context, input CreateBlockingInput) (*models.Blocking, error) {
	query := `
		INSERT INTO coach_blockings (coach_id, blocked_date, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, coach_id, blocked_date::text, start_time::text, end_time::text, reason, created_at
	`
	var blocking models.Blocking
	err := r.db.QueryRow(ctx, query,
		input.CoachID,
		input.BlockedDate,
		input.StartTime,
		input.EndTime,
		input.Reason,
	).Scan(
		&blocking.ID,
		&blocking.CoachID,
		&blocking.BlockedDate,
		&blocking.StartTime,
		&blocking.EndTime,
		&blocking.Reason,
		&blocking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &blocking, nil
}

func (r *BlockingRepository) ListByCoach(ctx context.Context, coachID int64) ([]models.Blocking, error) {
	query := `
		SELECT id, coach_id, blocked_date::text, start_time::text, end_time::text, reason, created_at
		FROM coach_blockings
		WHERE coach_id = $1
		ORDER BY blocked_date ASC, start_time ASC
	`
	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blockings := make([]models.Blocking, 0)
	for rows.Next() {
		var blocking models.Blocking
		if err := rows.Scan(
			&blocking.ID,
			&blocking.CoachID,
			&blocking.BlockedDate,
			&blocking.StartTime,
			&blocking.EndTime,
			&blocking.Reason,
			&blocking.CreatedAt,
		); err != nil {
			return nil, err
		}
		blockings = append(blockings, blocking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blockings, nil
}

// ListByCoachAndDate fetches the one-off blockings that apply on a single
// calendar date, for availability checks.
func (r *BlockingRepository) ListByCoachAndDate(ctx context.Context, coachID int64, date string) ([]models.Blocking, error) {
	query := `
		SELECT id, coach_id, blocked_date::text, start_time::text, end_time::text, reason, created_at
		FROM coach_blockings
		WHERE coach_id = $1 AND blocked_date = $2
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, coachID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blockings := make([]models.Blocking, 0)
	for rows.Next() {
		var blocking models.Blocking
		if err := rows.Scan(
			&blocking.ID,
			&blocking.CoachID,
			&blocking.BlockedDate,
			&blocking.StartTime,
			&blocking.EndTime,
			&blocking.Reason,
			&blocking.CreatedAt,
		); err != nil {
			return nil, err
		}
		blockings = append(blockings, blocking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blockings, nil
}

func (r *BlockingRepository) Delete(ctx context.Context, coachID, blockingID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM coach_blockings WHERE id = $1 AND coach_id = $2`,
		blockingID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type CreateRecurringBlockingInput struct {
	CoachID   int64
	DayOfWeek int
	StartTime string
	EndTime   string
	Reason    *string
}

func (r *BlockingRepository) CreateRecurring(ctx context.Context, input CreateRecurringBlockingInput) (*models.RecurringBlocking, error) {
	query := `
		INSERT INTO coach_recurring_blockings (coach_id, day_of_week, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, coach_id, day_of_week, start_time::text, end_time::text, reason, created_at
	`
	var recurring models.RecurringBlocking
	err := r.db.QueryRow(ctx, query,
		input.CoachID,
		input.DayOfWeek,
		input.StartTime,
		input.EndTime,
		input.Reason,
	).Scan(
		&recurring.ID,
		&recurring.CoachID,
		&recurring.DayOfWeek,
		&recurring.StartTime,
		&recurring.EndTime,
		&recurring.Reason,
		&recurring.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &recurring, nil
}

func (r *BlockingRepository) ListRecurringByCoach(ctx context.Context, coachID int64) ([]models.RecurringBlocking, error) {
	query := `
		SELECT id, coach_id, day_of_week, start_time::text, end_time::text, reason, created_at
		FROM coach_recurring_blockings
		WHERE coach_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`
	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recurrings := make([]models.RecurringBlocking, 0)
	for rows.Next() {
		var recurring models.RecurringBlocking
		if err := rows.Scan(
			&recurring.ID,
			&recurring.CoachID,
			&recurring.DayOfWeek,
			&recurring.StartTime,
			&recurring.EndTime,
			&recurring.Reason,
			&recurring.CreatedAt,
		); err != nil {
			return nil, err
		}
		recurrings = append(recurrings, recurring)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recurrings, nil
}

func (r *BlockingRepository) DeleteRecurring(ctx context.Context, coachID, recurringID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM coach_recurring_blockings WHERE id = $1 AND coach_id = $2`,
		recurringID, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
