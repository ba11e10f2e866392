package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/notify"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/schedule"
)

const (
	CancelledByCoach  = "coach"
	CancelledBySystem = "system"

	expiryCancellationReason = "Payment not received - request closed"
)

type BookingService struct {
	db               *pgxpool.Pool
	bookingRepo      *repository.BookingRepository
	paymentRepo      *repository.PaymentRepository
	blockingRepo     *repository.BlockingRepository
	coachProfileRepo *repository.CoachProfileRepository
	userRepo         *repository.UserRepository
	notifier         notify.Notifier
	logger           *slog.Logger
	loc              *time.Location
	paymentExpiry    time.Duration
	now              func() time.Time
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	blockingRepo *repository.BlockingRepository,
	coachProfileRepo *repository.CoachProfileRepository,
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
	loc *time.Location,
	paymentExpiry time.Duration,
) *BookingService {
	return &BookingService{
		db:               db,
		bookingRepo:      bookingRepo,
		paymentRepo:      paymentRepo,
		blockingRepo:     blockingRepo,
		coachProfileRepo: coachProfileRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		logger:           logger,
		loc:              loc,
		paymentExpiry:    paymentExpiry,
		now:              time.Now,
	}
}

// WithClock overrides the service clock. Pure logic never reads the ambient
// system clock directly, so tests stay deterministic.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

type CreateBookingInput struct {
	AthleteName   string
	AthletePhone  string
	Sport         string
	Location      string
	SessionDate   string // YYYY-MM-DD, already validated
	SessionTime   string // HH:MM, already validated
	DurationHours float64
	PaymentMethod string
	Notes         *string
}

// CreateBooking runs the full intake path: profile checks, availability
// policy, conflict detection, and insertion, all inside one transaction
// holding a per-coach advisory lock so two overlapping requests cannot both
// succeed.
func (s *BookingService) CreateBooking(
	ctx context.Context,
	coachID int64,
	input CreateBookingInput,
) (*models.BookingDetail, error) {
	profile, err := s.coachProfileRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !profile.OnboardingComplete || !profile.ProfileComplete() {
		return nil, ErrCoachNotBookable
	}
	if !profile.OffersSport(input.Sport) {
		return nil, ErrSportNotOffered
	}

	date, err := time.ParseInLocation("2006-01-02", input.SessionDate, s.loc)
	if err != nil {
		return nil, ErrInvalidInput
	}
	startTime, err := schedule.ParseTimeOfDay(input.SessionTime)
	if err != nil {
		return nil, ErrInvalidInput
	}
	window := schedule.SessionWindow(startTime, input.DurationHours)

	startAt, _ := window.At(date, s.loc)
	if startAt.Before(s.now().In(s.loc)) {
		return nil, ErrSessionInPast
	}

	totalAmount := input.DurationHours * *profile.HourlyRate

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)
	txBlockingRepo := repository.NewBlockingRepository(tx)

	// Serialize the validate-then-insert section per coach.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", coachID); err != nil {
		return nil, err
	}

	policy, err := s.buildPolicy(ctx, txBlockingRepo, profile, coachID, input.SessionDate)
	if err != nil {
		return nil, err
	}
	if violation := policy.Check(date, window); violation != nil {
		return nil, &PolicyViolationError{Violation: violation}
	}

	occupied, err := s.occupiedSlots(ctx, txBookingRepo, coachID, input.SessionDate)
	if err != nil {
		return nil, err
	}
	if conflict := schedule.FindConflict(input.SessionDate, window, occupied); conflict != nil {
		return nil, &ConflictError{
			BookingReference: conflict.Reference,
			SessionDate:      conflict.Date,
			SessionTime:      conflict.Window.Start.String(),
		}
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		CoachID:          coachID,
		BookingReference: newBookingReference(),
		AthleteName:      input.AthleteName,
		AthletePhone:     input.AthletePhone,
		Sport:            input.Sport,
		Location:         input.Location,
		SessionDate:      input.SessionDate,
		SessionTime:      input.SessionTime,
		DurationHours:    input.DurationHours,
		TotalAmount:      totalAmount,
		PaymentMethod:    strings.ToLower(input.PaymentMethod),
		Notes:            input.Notes,
	})
	if err != nil {
		return nil, err
	}

	// The ledger opens with a pending row for the full amount; coach-recorded
	// paid rows accumulate against it.
	payment, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		BookingID:     booking.ID,
		Amount:        totalAmount,
		PaymentMethod: strings.ToLower(input.PaymentMethod),
		PaymentStatus: models.PaymentStatusPending,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventBookingCreated, profile, booking, totalAmount)

	return &models.BookingDetail{
		Booking:  *booking,
		Payments: []models.Payment{*payment},
	}, nil
}

// CheckAvailability reports whether a candidate slot is bookable and, when
// it is not, the free same-day windows that could take the session.
func (s *BookingService) CheckAvailability(
	ctx context.Context,
	coachID int64,
	sessionDate string,
	sessionTime string,
	durationHours float64,
) (bool, []schedule.Window, error) {
	profile, err := s.coachProfileRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, ErrCoachNotFound
		}
		return false, nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", sessionDate, s.loc)
	if err != nil {
		return false, nil, ErrInvalidInput
	}

	policy, err := s.buildPolicy(ctx, s.blockingRepo, profile, coachID, sessionDate)
	if err != nil {
		return false, nil, err
	}
	occupied, err := s.occupiedSlots(ctx, s.bookingRepo, coachID, sessionDate)
	if err != nil {
		return false, nil, err
	}

	free := schedule.FreeSlots(policy, date, occupied, durationHours, s.now().In(s.loc), s.loc)

	if sessionTime == "" {
		return len(free) > 0, free, nil
	}

	startTime, err := schedule.ParseTimeOfDay(sessionTime)
	if err != nil {
		return false, nil, ErrInvalidInput
	}
	window := schedule.SessionWindow(startTime, durationHours)
	available := policy.Check(date, window) == nil &&
		schedule.FindConflict(sessionDate, window, occupied) == nil
	return available, free, nil
}

func (s *BookingService) ListBookings(
	ctx context.Context,
	coachID int64,
	filter repository.BookingListFilter,
) ([]models.BookingDetail, error) {
	bookings, err := s.bookingRepo.ListByCoach(ctx, coachID, filter)
	if err != nil {
		return nil, err
	}

	bookingIDs := make([]int64, 0, len(bookings))
	for _, booking := range bookings {
		bookingIDs = append(bookingIDs, booking.ID)
	}
	paymentsByBooking, err := s.paymentRepo.ListByBookingIDs(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		details = append(details, models.BookingDetail{
			Booking:  booking,
			Payments: paymentsByBooking[booking.ID],
		})
	}
	return details, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	coachID int64,
	bookingID int64,
) (*models.BookingDetail, error) {
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

// Approve moves a pending booking to approved. Any other starting status is
// a state conflict, never a silent no-op.
func (s *BookingService) Approve(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.authorize(ctx, coachID, bookingID)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.Approve(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.emitForCoach(ctx, notify.EventBookingApproved, coachID, updated, updated.TotalAmount)
	return s.GetBooking(ctx, coachID, updated.ID)
}

// Reject moves a pending booking to rejected.
func (s *BookingService) Reject(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.authorize(ctx, coachID, bookingID)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(
		ctx, booking.ID, models.BookingStatusPending, models.BookingStatusRejected,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.emitForCoach(ctx, notify.EventBookingRejected, coachID, updated, 0)
	return s.GetBooking(ctx, coachID, updated.ID)
}

// Cancel closes a pending or approved booking. A reason is mandatory; the
// acting party and time are recorded with it.
func (s *BookingService) Cancel(
	ctx context.Context,
	coachID, bookingID int64,
	reason string,
) (*models.BookingDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrInvalidInput
	}

	booking, err := s.authorize(ctx, coachID, bookingID)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.Cancel(ctx, booking.ID, strings.TrimSpace(reason), CancelledByCoach)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.emitForCoach(ctx, notify.EventBookingCancelled, coachID, updated, 0)
	return s.GetBooking(ctx, coachID, updated.ID)
}

// ExpireUnpaid closes approved bookings whose payment window has lapsed.
// The compare-and-swap cancel means a payment landing concurrently wins and
// the expiry attempt is a harmless no-op.
func (s *BookingService) ExpireUnpaid(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.paymentExpiry)
	expired, err := s.bookingRepo.ListPaymentExpired(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, booking := range expired {
		updated, err := s.bookingRepo.Cancel(ctx, booking.ID, expiryCancellationReason, CancelledBySystem)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return closed, err
		}
		closed++
		s.emitForCoach(ctx, notify.EventBookingCancelled, booking.CoachID, updated, 0)
	}
	return closed, nil
}

// RunExpirySweeper loops ExpireUnpaid until the context ends.
func (s *BookingService) RunExpirySweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := s.ExpireUnpaid(ctx)
			if err != nil {
				s.logger.Error("expiry sweep failed", "err", err)
				continue
			}
			if closed > 0 {
				s.logger.Info("expired unpaid bookings", "count", closed)
			}
		}
	}
}

// PaymentExpiry exposes the configured payment window for display-status
// derivation.
func (s *BookingService) PaymentExpiry() time.Duration {
	return s.paymentExpiry
}

func (s *BookingService) authorize(ctx context.Context, coachID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CoachID != coachID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) buildPolicy(
	ctx context.Context,
	repo *repository.BlockingRepository,
	profile *models.CoachProfile,
	coachID int64,
	date string,
) (schedule.Policy, error) {
	var policy schedule.Policy

	if profile.CoachingHours != nil {
		start, err := schedule.ParseTimeOfDay(profile.CoachingHours.Start)
		if err != nil {
			return policy, err
		}
		end, err := schedule.ParseTimeOfDay(profile.CoachingHours.End)
		if err != nil {
			return policy, err
		}
		hours, err := schedule.NewWindow(start, end)
		if err != nil {
			return policy, err
		}
		policy.Hours = &hours
	}

	blockings, err := repo.ListByCoachAndDate(ctx, coachID, date)
	if err != nil {
		return policy, err
	}
	for _, b := range blockings {
		window, err := parseWindow(b.StartTime, b.EndTime)
		if err != nil {
			return policy, err
		}
		policy.Blockings = append(policy.Blockings, schedule.DateWindow{
			Date:   b.BlockedDate,
			Window: window,
			Reason: derefString(b.Reason),
		})
	}

	recurrings, err := repo.ListRecurringByCoach(ctx, coachID)
	if err != nil {
		return policy, err
	}
	for _, r := range recurrings {
		window, err := parseWindow(r.StartTime, r.EndTime)
		if err != nil {
			return policy, err
		}
		policy.Recurring = append(policy.Recurring, schedule.WeekdayWindow{
			Weekday: time.Weekday(r.DayOfWeek),
			Window:  window,
			Reason:  derefString(r.Reason),
		})
	}

	return policy, nil
}

func (s *BookingService) occupiedSlots(
	ctx context.Context,
	repo *repository.BookingRepository,
	coachID int64,
	date string,
) ([]schedule.BookingSlot, error) {
	bookings, err := repo.ListOnDate(ctx, coachID, date)
	if err != nil {
		return nil, err
	}

	slots := make([]schedule.BookingSlot, 0, len(bookings))
	for _, booking := range bookings {
		if !schedule.IsOccupying(booking.Status) {
			continue
		}
		start, err := schedule.ParseTimeOfDay(booking.SessionTime)
		if err != nil {
			return nil, err
		}
		slots = append(slots, schedule.BookingSlot{
			BookingID: booking.ID,
			Reference: booking.BookingReference,
			Date:      booking.SessionDate,
			Window:    schedule.SessionWindow(start, booking.DurationHours),
		})
	}
	return slots, nil
}

func (s *BookingService) emit(
	ctx context.Context,
	eventType string,
	profile *models.CoachProfile,
	booking *models.Booking,
	amount float64,
) {
	event := notify.Event{
		Type:             eventType,
		CoachID:          booking.CoachID,
		CoachName:        derefString(profile.FullName),
		BookingReference: booking.BookingReference,
		AthleteName:      booking.AthleteName,
		AthletePhone:     booking.AthletePhone,
		Sport:            booking.Sport,
		Location:         booking.Location,
		SessionDate:      booking.SessionDate,
		SessionTime:      booking.SessionTime,
		Amount:           amount,
	}
	if user, err := s.userRepo.GetByID(ctx, profile.UserID); err == nil {
		event.CoachEmail = user.Email
	}
	go s.notifier.Notify(context.WithoutCancel(ctx), event)
}

func (s *BookingService) emitForCoach(
	ctx context.Context,
	eventType string,
	coachID int64,
	booking *models.Booking,
	amount float64,
) {
	profile, err := s.coachProfileRepo.GetByID(ctx, coachID)
	if err != nil {
		s.logger.Error("notify lookup failed", "coach_id", coachID, "err", err)
		return
	}
	s.emit(ctx, eventType, profile, booking, amount)
}

func newBookingReference() string {
	return "MU-" + strings.ToUpper(uuid.NewString()[:8])
}

func parseWindow(start, end string) (schedule.Window, error) {
	s, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return schedule.Window{}, err
	}
	e, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		return schedule.Window{}, err
	}
	return schedule.NewWindow(s, e)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
