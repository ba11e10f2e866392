package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/notify"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestBookingPaymentFlowCompletesWhenFullyPaid(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	bookings, payments := newIntegrationServices(pool)

	coachUserID, coachID := createTestCoach(t, ctx, pool, 120)
	t.Cleanup(func() { cleanupTestCoaches(t, ctx, pool, coachUserID) })

	detail, err := bookings.CreateBooking(ctx, coachID, CreateBookingInput{
		AthleteName:   "Juan Dela Cruz",
		AthletePhone:  "+639171234567",
		Sport:         "tennis",
		Location:      "Makati Sports Club",
		SessionDate:   "2030-03-16",
		SessionTime:   "09:00",
		DurationHours: 1.5,
		PaymentMethod: "gcash",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if detail.Booking.Status != models.BookingStatusPending {
		t.Fatalf("expected pending booking, got %q", detail.Booking.Status)
	}
	if detail.Booking.TotalAmount != 180 {
		t.Fatalf("expected total 180, got %.2f", detail.Booking.TotalAmount)
	}
	if len(detail.Payments) != 1 ||
		detail.Payments[0].PaymentStatus != models.PaymentStatusPending ||
		detail.Payments[0].Amount != 180 {
		t.Fatalf("expected one pending full-amount ledger row, got %+v", detail.Payments)
	}

	bookingID := detail.Booking.ID
	if _, err := bookings.Approve(ctx, coachID, bookingID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	partial, err := payments.RecordPayment(ctx, coachID, bookingID, RecordPaymentInput{
		Amount:        100,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("RecordPayment partial: %v", err)
	}
	if partial.Booking.Status != models.BookingStatusApproved {
		t.Fatalf("partial payment must not complete the booking, got %q", partial.Booking.Status)
	}

	ref := "GC-2030-0316"
	full, err := payments.RecordPayment(ctx, coachID, bookingID, RecordPaymentInput{
		Amount:          80,
		PaymentMethod:   "gcash",
		ReferenceNumber: &ref,
	})
	if err != nil {
		t.Fatalf("RecordPayment remainder: %v", err)
	}
	if full.Booking.Status != models.BookingStatusCompleted {
		t.Fatalf("expected completed booking once fully paid, got %q", full.Booking.Status)
	}

	var paidID int64
	for _, p := range full.Payments {
		if p.PaymentStatus == models.PaymentStatusPaid && p.Amount == 100 {
			paidID = p.ID
		}
	}
	if paidID == 0 {
		t.Fatalf("paid 100 ledger row not found in %+v", full.Payments)
	}

	disputed, err := payments.DisputePayment(ctx, coachID, paidID, "athlete says cash was never handed over")
	if err != nil {
		t.Fatalf("DisputePayment: %v", err)
	}
	if disputed.Booking.Status != models.BookingStatusPending {
		t.Fatalf("dispute must reopen the booking, got %q", disputed.Booking.Status)
	}
	if p := findPayment(t, disputed.Payments, paidID); p.DisputeReason == nil {
		t.Fatal("expected dispute metadata on the payment")
	}

	confirmed, err := payments.ConfirmPayment(ctx, coachID, paidID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if confirmed.Booking.Status != models.BookingStatusCompleted {
		t.Fatalf("expected booking completed again after confirmation, got %q", confirmed.Booking.Status)
	}
	if p := findPayment(t, confirmed.Payments, paidID); p.DisputeReason != nil {
		t.Fatal("expected dispute metadata cleared after confirmation")
	}
}

func TestBookingCreationRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	bookings, _ := newIntegrationServices(pool)

	coachUserID, coachID := createTestCoach(t, ctx, pool, 100)
	t.Cleanup(func() { cleanupTestCoaches(t, ctx, pool, coachUserID) })

	first, err := bookings.CreateBooking(ctx, coachID, flowBookingInput("2030-04-01", "10:00"))
	if err != nil {
		t.Fatalf("first CreateBooking: %v", err)
	}

	var conflict *ConflictError
	_, err = bookings.CreateBooking(ctx, coachID, flowBookingInput("2030-04-01", "10:30"))
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict for overlapping slot, got %v", err)
	}
	if conflict.BookingReference != first.Booking.BookingReference {
		t.Fatalf("conflict names %q, want %q", conflict.BookingReference, first.Booking.BookingReference)
	}

	// A cancelled booking releases its slot.
	if _, err := bookings.Cancel(ctx, coachID, first.Booking.ID, "athlete asked to reschedule"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := bookings.CreateBooking(ctx, coachID, flowBookingInput("2030-04-01", "10:30")); err != nil {
		t.Fatalf("expected slot free after cancellation, got %v", err)
	}
}

func TestBookingCreationSerializesConcurrentOverlap(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	bookings, _ := newIntegrationServices(pool)

	coachUserID, coachID := createTestCoach(t, ctx, pool, 90)
	t.Cleanup(func() { cleanupTestCoaches(t, ctx, pool, coachUserID) })

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bookings.CreateBooking(ctx, coachID, flowBookingInput("2030-05-02", "14:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created, conflicted int
	for err := range results {
		switch {
		case err == nil:
			created++
		default:
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected conflict for the losing request, got %v", err)
			}
			conflicted++
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one winner, got %d created and %d conflicted", created, conflicted)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationServices(pool *pgxpool.Pool) (*BookingService, *PaymentService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	coachProfileRepo := repository.NewCoachProfileRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	bookings := NewBookingService(
		pool,
		bookingRepo,
		paymentRepo,
		repository.NewBlockingRepository(pool),
		coachProfileRepo,
		userRepo,
		notify.Nop{},
		logger,
		time.UTC,
		24*time.Hour,
	)
	payments := NewPaymentService(
		pool,
		bookingRepo,
		paymentRepo,
		coachProfileRepo,
		userRepo,
		notify.Nop{},
		logger,
	)
	return bookings, payments
}

func createTestCoach(t *testing.T, ctx context.Context, pool *pgxpool.Pool, hourlyRate float64) (userID, coachID int64) {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("booking-flow-coach-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         "coach",
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	coachProfileRepo := repository.NewCoachProfileRepository(pool)
	if err := coachProfileRepo.CreateEmpty(ctx, user.ID); err != nil {
		t.Fatalf("CreateEmpty coach profile: %v", err)
	}
	profile, err := coachProfileRepo.UpdateOnboarding(ctx, user.ID, repository.CoachOnboardingInput{
		FullName:        "Flow Test Coach",
		Bio:             "Integration fixture",
		SportsOffered:   []string{"tennis"},
		Locations:       []string{"Makati"},
		HourlyRate:      hourlyRate,
		ExperienceYears: 3,
	})
	if err != nil {
		t.Fatalf("UpdateOnboarding coach profile: %v", err)
	}

	return user.ID, profile.ID
}

func cleanupTestCoaches(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	const coachIDs = "SELECT id FROM coach_profiles WHERE user_id = ANY($1)"
	if _, err := pool.Exec(ctx,
		"DELETE FROM payments WHERE booking_id IN (SELECT id FROM bookings WHERE coach_id IN ("+coachIDs+"))",
		userIDs,
	); err != nil {
		t.Fatalf("cleanup payments: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"DELETE FROM bookings WHERE coach_id IN ("+coachIDs+")", userIDs,
	); err != nil {
		t.Fatalf("cleanup bookings: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM coach_profiles WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup coach profiles: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}

func flowBookingInput(date, startTime string) CreateBookingInput {
	return CreateBookingInput{
		AthleteName:   "Maria Santos",
		AthletePhone:  "+639189876543",
		Sport:         "tennis",
		Location:      "BGC Turf",
		SessionDate:   date,
		SessionTime:   startTime,
		DurationHours: 1,
		PaymentMethod: "cash",
	}
}

func findPayment(t *testing.T, payments []models.Payment, id int64) models.Payment {
	t.Helper()
	for _, p := range payments {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("payment %d not found", id)
	return models.Payment{}
}
