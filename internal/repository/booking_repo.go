package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/renren-chavez/MatchUpBack/internal/models"
)

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, coach_id, booking_reference, athlete_name, athlete_phone, sport,
	location, session_date::text, session_time::text, duration_hours, total_amount,
	payment_method, notes, status, approved_at, cancellation_reason, cancelled_by,
	cancelled_at, created_at, updated_at`

type CreateBookingInput struct {
	CoachID          int64
	BookingReference string
	AthleteName      string
	AthletePhone     string
	Sport            string
	Location         string
	SessionDate      string
	SessionTime      string
	DurationHours    float64
	TotalAmount      float64
	PaymentMethod    string
	Notes            *string
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (coach_id, booking_reference, athlete_name, athlete_phone, sport,
			location, session_date, session_time, duration_hours, total_amount, payment_method,
			notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending')
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query,
		input.CoachID,
		input.BookingReference,
		input.AthleteName,
		input.AthletePhone,
		input.Sport,
		input.Location,
		input.SessionDate,
		input.SessionTime,
		input.DurationHours,
		input.TotalAmount,
		input.PaymentMethod,
		input.Notes,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_reference = $1
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, reference))
}

type BookingListFilter struct {
	Status    string
	Timeframe string
}

func (r *BookingRepository) ListByCoach(
	ctx context.Context,
	coachID int64,
	filter BookingListFilter,
) ([]models.Booking, error) {
	args := []any{coachID}
	whereParts := []string{"coach_id = $1"}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(session_date + session_time + (duration_hours * INTERVAL '1 hour')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(session_date + session_time + (duration_hours * INTERVAL '1 hour')) <= NOW()",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE %s
		ORDER BY session_date ASC, session_time ASC, id ASC
	`, bookingColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListOnDate fetches every booking a coach has on the given date, regardless
// of status. Callers decide which statuses matter; the conflict engine keeps
// only the ones that reserve their slot.
func (r *BookingRepository) ListOnDate(
	ctx context.Context,
	coachID int64,
	date string,
) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE coach_id = $1
		  AND session_date = $2
		ORDER BY session_time ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, coachID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Approve transitions pending -> approved and stamps approved_at. Returns
// pgx.ErrNoRows when the booking is not currently pending.
func (r *BookingRepository) Approve(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'approved', approved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// Cancel transitions pending/approved -> cancelled, recording the reason,
// the acting party, and the cancellation time.
func (r *BookingRepository) Cancel(
	ctx context.Context,
	bookingID int64,
	reason string,
	cancelledBy string,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
			cancellation_reason = $2,
			cancelled_by = $3,
			cancelled_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID, reason, cancelledBy))
}

// UpdateStatusIfCurrent is a compare-and-swap on the booking status.
func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

// CompleteIfActive marks a pending or approved booking completed. Used by
// the payment ledger when the total is fully paid.
func (r *BookingRepository) CompleteIfActive(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// ReopenForDispute pushes an approved or completed booking back to pending
// while a payment dispute is resolved.
func (r *BookingRepository) ReopenForDispute(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'pending', updated_at = NOW()
		WHERE id = $1 AND status IN ('approved', 'completed')
		RETURNING ` + bookingColumns + `
	`
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// ListPaymentExpired returns approved bookings whose approval predates the
// cutoff, for the expiry sweeper.
func (r *BookingRepository) ListPaymentExpired(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'approved' AND approved_at < $1
		ORDER BY approved_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CoachID,
		&booking.BookingReference,
		&booking.AthleteName,
		&booking.AthletePhone,
		&booking.Sport,
		&booking.Location,
		&booking.SessionDate,
		&booking.SessionTime,
		&booking.DurationHours,
		&booking.TotalAmount,
		&booking.PaymentMethod,
		&booking.Notes,
		&booking.Status,
		&booking.ApprovedAt,
		&booking.CancellationReason,
		&booking.CancelledBy,
		&booking.CancelledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
