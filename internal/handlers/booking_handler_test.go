package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

type stubBookingService struct {
	lastCoachID   int64
	lastBookingID int64
	lastFilter    repository.BookingListFilter
	lastReason    string

	details []models.BookingDetail
	detail  *models.BookingDetail
	err     error
}

func (s *stubBookingService) ListBookings(_ context.Context, coachID int64, filter repository.BookingListFilter) ([]models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastFilter = filter
	return s.details, s.err
}

func (s *stubBookingService) GetBooking(_ context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastBookingID = bookingID
	return s.detail, s.err
}

func (s *stubBookingService) Approve(_ context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastBookingID = bookingID
	return s.detail, s.err
}

func (s *stubBookingService) Reject(_ context.Context, coachID, bookingID int64) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastBookingID = bookingID
	return s.detail, s.err
}

func (s *stubBookingService) Cancel(_ context.Context, coachID, bookingID int64, reason string) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastBookingID = bookingID
	s.lastReason = reason
	return s.detail, s.err
}

type stubProfileResolver struct {
	profile *models.CoachProfile
	err     error
}

func (s *stubProfileResolver) GetByUserID(_ context.Context, _ int64) (*models.CoachProfile, error) {
	return s.profile, s.err
}

func coachProfileFixture(id int64) *models.CoachProfile {
	return &models.CoachProfile{ID: id, UserID: 42}
}

func newCoachApp(role, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	return app
}

func bookingDetailFixture() *models.BookingDetail {
	approvedAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return &models.BookingDetail{
		Booking: models.Booking{
			ID:               7,
			CoachID:          3,
			BookingReference: "MU-1A2B3C4D",
			AthleteName:      "Juan Dela Cruz",
			Status:           models.BookingStatusApproved,
			TotalAmount:      1000,
			ApprovedAt:       &approvedAt,
		},
		Payments: []models.Payment{
			{BookingID: 7, Amount: 400, PaymentStatus: models.PaymentStatusPaid},
			{BookingID: 7, Amount: 100, PaymentStatus: models.PaymentStatusPending},
		},
	}
}

func decodeBookingEnvelope(t *testing.T, body io.Reader) bookingResponse {
	t.Helper()
	var envelope struct {
		Booking bookingResponse `json:"booking"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Booking
}

func TestApproveBookingReturnsLedgerTotals(t *testing.T) {
	service := &stubBookingService{detail: bookingDetailFixture()}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)
	handler.now = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }

	app := newCoachApp("coach", "42")
	app.Post("/bookings/:id/approve", handler.ApproveBooking)

	req := httptest.NewRequest("POST", "/bookings/7/approve", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 3 || service.lastBookingID != 7 {
		t.Fatalf("service called with coach=%d booking=%d", service.lastCoachID, service.lastBookingID)
	}

	booking := decodeBookingEnvelope(t, resp.Body)
	if booking.DisplayStatus != models.BookingStatusApproved {
		t.Fatalf("expected display status approved, got %q", booking.DisplayStatus)
	}
	if booking.TotalPaid != 400 {
		t.Fatalf("expected total_paid 400, got %v", booking.TotalPaid)
	}
	if booking.RemainingBalance != 600 {
		t.Fatalf("expected remaining_balance 600, got %v", booking.RemainingBalance)
	}
}

func TestGetBookingShowsExpiredPastPaymentWindow(t *testing.T) {
	service := &stubBookingService{detail: bookingDetailFixture()}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)
	handler.now = func() time.Time { return time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC) }

	app := newCoachApp("coach", "42")
	app.Get("/bookings/:id", handler.GetBooking)

	resp, err := app.Test(httptest.NewRequest("GET", "/bookings/7", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	booking := decodeBookingEnvelope(t, resp.Body)
	if booking.DisplayStatus != "expired" {
		t.Fatalf("expected display status expired, got %q", booking.DisplayStatus)
	}
	if booking.Status != models.BookingStatusApproved {
		t.Fatalf("persisted status should stay approved, got %q", booking.Status)
	}
}

func TestListBookingsForwardsFilter(t *testing.T) {
	service := &stubBookingService{details: []models.BookingDetail{*bookingDetailFixture()}}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Get("/bookings", handler.ListBookings)

	resp, err := app.Test(httptest.NewRequest("GET", "/bookings?status=pending&timeframe=upcoming", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFilter.Status != "pending" || service.lastFilter.Timeframe != "upcoming" {
		t.Fatalf("unexpected filter: %+v", service.lastFilter)
	}
}

func TestCancelBookingRequiresReason(t *testing.T) {
	service := &stubBookingService{detail: bookingDetailFixture()}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Post("/bookings/:id/cancel", handler.CancelBooking)

	body := bytes.NewBufferString(`{"reason":"<b>  </b>"}`)
	req := httptest.NewRequest("POST", "/bookings/7/cancel", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastBookingID != 0 {
		t.Fatal("service should not be called without a reason")
	}
}

func TestCancelBookingStripsMarkupFromReason(t *testing.T) {
	service := &stubBookingService{detail: bookingDetailFixture()}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Post("/bookings/:id/cancel", handler.CancelBooking)

	body := bytes.NewBufferString(`{"reason":"<i>Athlete requested</i>"}`)
	req := httptest.NewRequest("POST", "/bookings/7/cancel", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason != "Athlete requested" {
		t.Fatalf("expected stripped reason, got %q", service.lastReason)
	}
}

func TestBookingEndpointsRejectNonCoach(t *testing.T) {
	service := &stubBookingService{}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("athlete", "42")
	app.Get("/bookings", handler.ListBookings)

	resp, err := app.Test(httptest.NewRequest("GET", "/bookings", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookingHandlerMissingProfileIsNotFound(t *testing.T) {
	service := &stubBookingService{}
	handler := NewBookingHandler(service, &stubProfileResolver{err: pgx.ErrNoRows}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Get("/bookings", handler.ListBookings)

	resp, err := app.Test(httptest.NewRequest("GET", "/bookings", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestApproveBookingStateConflict(t *testing.T) {
	service := &stubBookingService{err: services.ErrInvalidStateTransition}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Post("/bookings/:id/approve", handler.ApproveBooking)

	resp, err := app.Test(httptest.NewRequest("POST", "/bookings/7/approve", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	service := &stubBookingService{err: pgx.ErrNoRows}
	handler := NewBookingHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, 24*time.Hour)

	app := newCoachApp("coach", "42")
	app.Get("/bookings/:id", handler.GetBooking)

	resp, err := app.Test(httptest.NewRequest("GET", "/bookings/999", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
