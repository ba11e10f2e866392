package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/notify"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
)

type PaymentService struct {
	db               *pgxpool.Pool
	bookingRepo      *repository.BookingRepository
	paymentRepo      *repository.PaymentRepository
	coachProfileRepo *repository.CoachProfileRepository
	userRepo         *repository.UserRepository
	notifier         notify.Notifier
	logger           *slog.Logger
}

func NewPaymentService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	coachProfileRepo *repository.CoachProfileRepository,
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		db:               db,
		bookingRepo:      bookingRepo,
		paymentRepo:      paymentRepo,
		coachProfileRepo: coachProfileRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

type RecordPaymentInput struct {
	Amount          float64
	PaymentMethod   string
	ReferenceNumber *string
	IsDeposit       bool
	ReceiptURL      *string
}

// ValidateRecordPayment applies the ledger's field rules against the given
// remaining balance. Exported so both the transaction path and tests can
// exercise the same rules.
func ValidateRecordPayment(input RecordPaymentInput, remaining float64) error {
	if input.Amount <= 0 {
		return &PaymentError{Reason: "amount must be greater than 0"}
	}
	if input.Amount > remaining {
		return &PaymentError{
			Reason: fmt.Sprintf("amount cannot exceed the remaining balance of %.2f", remaining),
		}
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	switch method {
	case models.PaymentMethodCash:
	case models.PaymentMethodGcash, models.PaymentMethodMaya:
		if input.ReferenceNumber == nil || strings.TrimSpace(*input.ReferenceNumber) == "" {
			return &PaymentError{Reason: "reference number is required for " + method + " payments"}
		}
	default:
		return &PaymentError{Reason: "payment method must be one of: gcash, maya, cash"}
	}
	return nil
}

// RecordPayment inserts a paid ledger row and, when the booking is fully
// paid, completes it in the same transaction. Completion is re-derived from
// the ledger rows, never from a flag, so a retry after partial failure
// converges to the same state.
func (s *PaymentService) RecordPayment(
	ctx context.Context,
	coachID int64,
	bookingID int64,
	input RecordPaymentInput,
) (*models.BookingDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	booking, err := txBookingRepo.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}
	if booking.Status == models.BookingStatusRejected || booking.Status == models.BookingStatusCancelled {
		return nil, ErrInvalidStateTransition
	}

	alreadyPaid, err := txPaymentRepo.SumPaid(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := ValidateRecordPayment(input, booking.TotalAmount-alreadyPaid); err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if _, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		BookingID:       bookingID,
		Amount:          input.Amount,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentStatusPaid,
		IsDeposit:       input.IsDeposit,
		ReferenceNumber: input.ReferenceNumber,
		ReceiptURL:      input.ReceiptURL,
		MarkPaidNow:     true,
	}); err != nil {
		return nil, err
	}

	if err := s.completeIfFullyPaid(ctx, txBookingRepo, txPaymentRepo, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emitPayment(ctx, booking, input.Amount)
	return s.getDetail(ctx, coachID, bookingID)
}

// ConfirmPayment marks a pending or disputed payment paid and re-derives
// the booking's completion, e.g. after the athlete's receipt is verified.
func (s *PaymentService) ConfirmPayment(
	ctx context.Context,
	coachID int64,
	paymentID int64,
) (*models.BookingDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	payment, err := txPaymentRepo.GetByIDForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	booking, err := txBookingRepo.GetByIDForUpdate(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}

	confirmed, err := txPaymentRepo.MarkPaid(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := s.completeIfFullyPaid(ctx, txBookingRepo, txPaymentRepo, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emitPayment(ctx, booking, confirmed.Amount)
	return s.getDetail(ctx, coachID, booking.ID)
}

// DisputePayment flags a paid payment and reverts its booking to pending
// for manual resolution.
func (s *PaymentService) DisputePayment(
	ctx context.Context,
	coachID int64,
	paymentID int64,
	reason string,
) (*models.BookingDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	payment, err := txPaymentRepo.GetByIDForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	booking, err := txBookingRepo.GetByIDForUpdate(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}

	if _, err := txPaymentRepo.MarkDisputed(ctx, paymentID, strings.TrimSpace(reason)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if _, err := txBookingRepo.ReopenForDispute(ctx, booking.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.getDetail(ctx, coachID, booking.ID)
}

// AttachReceipt stores the opaque receipt artifact reference on a payment.
// The core never inspects receipt content.
func (s *PaymentService) AttachReceipt(
	ctx context.Context,
	coachID int64,
	paymentID int64,
	receiptURL string,
) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}
	return s.paymentRepo.AttachReceipt(ctx, paymentID, receiptURL)
}

func (s *PaymentService) ListTransactions(
	ctx context.Context,
	coachID int64,
	page, limit int,
) ([]repository.CoachTransaction, int, error) {
	transactions, err := s.paymentRepo.ListByCoach(ctx, coachID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountByCoach(ctx, coachID)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (s *PaymentService) completeIfFullyPaid(
	ctx context.Context,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	booking *models.Booking,
) error {
	totalPaid, err := paymentRepo.SumPaid(ctx, booking.ID)
	if err != nil {
		return err
	}
	if totalPaid < booking.TotalAmount {
		return nil
	}
	if _, err := bookingRepo.CompleteIfActive(ctx, booking.ID); err != nil {
		// Already completed is fine; the ledger said so twice.
		if errors.Is(err, pgx.ErrNoRows) && booking.Status == models.BookingStatusCompleted {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidStateTransition
		}
		return err
	}
	return nil
}

func (s *PaymentService) getDetail(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}
	payments, err := s.paymentRepo.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &models.BookingDetail{Booking: *booking, Payments: payments}, nil
}

func (s *PaymentService) emitPayment(ctx context.Context, booking *models.Booking, amount float64) {
	profile, err := s.coachProfileRepo.GetByID(ctx, booking.CoachID)
	if err != nil {
		s.logger.Error("notify lookup failed", "coach_id", booking.CoachID, "err", err)
		return
	}
	event := notify.Event{
		Type:             notify.EventPaymentConfirmed,
		CoachID:          booking.CoachID,
		CoachName:        derefString(profile.FullName),
		BookingReference: booking.BookingReference,
		AthleteName:      booking.AthleteName,
		SessionDate:      booking.SessionDate,
		SessionTime:      booking.SessionTime,
		Amount:           amount,
	}
	if user, err := s.userRepo.GetByID(ctx, profile.UserID); err == nil {
		event.CoachEmail = user.Email
	}
	go s.notifier.Notify(context.WithoutCancel(ctx), event)
}
