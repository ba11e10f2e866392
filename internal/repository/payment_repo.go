package repository

import (
	"context"

	"github.com/renren-chavez/MatchUpBack/internal/models"
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, amount, payment_method, payment_status, is_deposit,
	reference_number, payment_receipt_url, payment_date, dispute_reason, dispute_initiated_at,
	created_at`

type CreatePaymentInput struct {
	BookingID       int64
	Amount          float64
	PaymentMethod   string
	PaymentStatus   string
	IsDeposit       bool
	ReferenceNumber *string
	ReceiptURL      *string
	MarkPaidNow     bool
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (booking_id, amount, payment_method, payment_status, is_deposit,
			reference_number, payment_receipt_url, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $8 THEN NOW() ELSE NULL END)
		RETURNING ` + paymentColumns + `
	`
	return r.scanPayment(r.db.QueryRow(ctx, query,
		input.BookingID,
		input.Amount,
		input.PaymentMethod,
		input.PaymentStatus,
		input.IsDeposit,
		input.ReferenceNumber,
		input.ReceiptURL,
		input.MarkPaidNow,
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`
	return r.scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PaymentRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]models.Payment, error) {
	payments := make(map[int64][]models.Payment, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = ANY($1)
		ORDER BY booking_id ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.BookingID] = append(payments[payment.BookingID], *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// SumPaid totals the rows already marked paid for a booking. The ledger, not
// a flag, is the source of truth for "fully paid".
func (r *PaymentRepository) SumPaid(ctx context.Context, bookingID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE booking_id = $1 AND payment_status = 'paid'
	`
	var total float64
	if err := r.db.QueryRow(ctx, query, bookingID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MarkPaid confirms a payment: sets paid, stamps payment_date, and clears
// any dispute metadata. Returns pgx.ErrNoRows unless the payment is
// currently pending or disputed.
func (r *PaymentRepository) MarkPaid(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET payment_status = 'paid',
			payment_date = NOW(),
			dispute_reason = NULL,
			dispute_initiated_at = NULL
		WHERE id = $1
		  AND (payment_status = 'pending' OR dispute_initiated_at IS NOT NULL)
		RETURNING ` + paymentColumns + `
	`
	return r.scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

// MarkDisputed stamps dispute metadata on a paid payment.
func (r *PaymentRepository) MarkDisputed(ctx context.Context, paymentID int64, reason string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET dispute_reason = $2, dispute_initiated_at = NOW()
		WHERE id = $1 AND payment_status = 'paid'
		RETURNING ` + paymentColumns + `
	`
	return r.scanPayment(r.db.QueryRow(ctx, query, paymentID, reason))
}

func (r *PaymentRepository) AttachReceipt(ctx context.Context, paymentID int64, receiptURL string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET payment_receipt_url = $2
		WHERE id = $1
		RETURNING ` + paymentColumns + `
	`
	return r.scanPayment(r.db.QueryRow(ctx, query, paymentID, receiptURL))
}

// CoachTransaction is a payment joined with its booking context for the
// transactions screen.
type CoachTransaction struct {
	Payment          models.Payment `json:"payment"`
	BookingReference string         `json:"booking_reference"`
	AthleteName      string         `json:"athlete_name"`
	Sport            string         `json:"sport"`
	SessionDate      string         `json:"session_date"`
}

func (r *PaymentRepository) ListByCoach(ctx context.Context, coachID int64, limit, offset int) ([]CoachTransaction, error) {
	query := `
		SELECT p.id, p.booking_id, p.amount, p.payment_method, p.payment_status, p.is_deposit,
			p.reference_number, p.payment_receipt_url, p.payment_date, p.dispute_reason,
			p.dispute_initiated_at, p.created_at,
			b.booking_reference, b.athlete_name, b.sport, b.session_date::text
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.coach_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, coachID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]CoachTransaction, 0)
	for rows.Next() {
		var tx CoachTransaction
		if err := rows.Scan(
			&tx.Payment.ID,
			&tx.Payment.BookingID,
			&tx.Payment.Amount,
			&tx.Payment.PaymentMethod,
			&tx.Payment.PaymentStatus,
			&tx.Payment.IsDeposit,
			&tx.Payment.ReferenceNumber,
			&tx.Payment.ReceiptURL,
			&tx.Payment.PaymentDate,
			&tx.Payment.DisputeReason,
			&tx.Payment.DisputeInitiated,
			&tx.Payment.CreatedAt,
			&tx.BookingReference,
			&tx.AthleteName,
			&tx.Sport,
			&tx.SessionDate,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *PaymentRepository) CountByCoach(ctx context.Context, coachID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.coach_id = $1
	`
	var total int
	if err := r.db.QueryRow(ctx, query, coachID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PaymentRepository) scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.PaymentMethod,
		&payment.PaymentStatus,
		&payment.IsDeposit,
		&payment.ReferenceNumber,
		&payment.ReceiptURL,
		&payment.PaymentDate,
		&payment.DisputeReason,
		&payment.DisputeInitiated,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
