package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

type stubPaymentService struct {
	lastCoachID   int64
	lastBookingID int64
	lastPaymentID int64
	lastInput     services.RecordPaymentInput
	lastReason    string
	lastPage      int
	lastLimit     int

	detail       *models.BookingDetail
	payment      *models.Payment
	transactions []repository.CoachTransaction
	total        int
	err          error
}

func (s *stubPaymentService) RecordPayment(_ context.Context, coachID, bookingID int64, input services.RecordPaymentInput) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastBookingID = bookingID
	s.lastInput = input
	return s.detail, s.err
}

func (s *stubPaymentService) ConfirmPayment(_ context.Context, coachID, paymentID int64) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastPaymentID = paymentID
	return s.detail, s.err
}

func (s *stubPaymentService) DisputePayment(_ context.Context, coachID, paymentID int64, reason string) (*models.BookingDetail, error) {
	s.lastCoachID = coachID
	s.lastPaymentID = paymentID
	s.lastReason = reason
	return s.detail, s.err
}

func (s *stubPaymentService) AttachReceipt(_ context.Context, coachID, paymentID int64, _ string) (*models.Payment, error) {
	s.lastCoachID = coachID
	s.lastPaymentID = paymentID
	return s.payment, s.err
}

func (s *stubPaymentService) ListTransactions(_ context.Context, coachID int64, page, limit int) ([]repository.CoachTransaction, int, error) {
	s.lastCoachID = coachID
	s.lastPage = page
	s.lastLimit = limit
	return s.transactions, s.total, s.err
}

func newPaymentApp(service *stubPaymentService, storage services.Storage) *fiber.App {
	handler := NewPaymentHandler(service, &stubProfileResolver{profile: coachProfileFixture(3)}, storage, 24*time.Hour)
	app := newCoachApp("coach", "42")
	app.Post("/bookings/:id/payments", handler.RecordPayment)
	app.Post("/payments/:id/confirm", handler.ConfirmPayment)
	app.Post("/payments/:id/dispute", handler.DisputePayment)
	app.Post("/payments/:id/receipt", handler.UploadReceipt)
	app.Get("/transactions", handler.ListTransactions)
	return app
}

func TestRecordPaymentReturnsUpdatedLedger(t *testing.T) {
	service := &stubPaymentService{detail: bookingDetailFixture()}
	app := newPaymentApp(service, nil)

	body := bytes.NewBufferString(`{"amount":400,"payment_method":"gcash","reference_number":"GC-123","is_deposit":true}`)
	req := httptest.NewRequest("POST", "/bookings/7/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 3 || service.lastBookingID != 7 {
		t.Fatalf("service called with coach=%d booking=%d", service.lastCoachID, service.lastBookingID)
	}
	if service.lastInput.Amount != 400 || !service.lastInput.IsDeposit {
		t.Fatalf("unexpected input: %+v", service.lastInput)
	}
	if service.lastInput.ReferenceNumber == nil || *service.lastInput.ReferenceNumber != "GC-123" {
		t.Fatalf("expected reference number, got %v", service.lastInput.ReferenceNumber)
	}

	booking := decodeBookingEnvelope(t, resp.Body)
	if booking.TotalPaid != 400 || booking.RemainingBalance != 600 {
		t.Fatalf("unexpected totals: paid=%v remaining=%v", booking.TotalPaid, booking.RemainingBalance)
	}
}

func TestRecordPaymentLedgerRuleViolation(t *testing.T) {
	service := &stubPaymentService{err: &services.PaymentError{Reason: "amount cannot exceed the remaining balance of 600.00"}}
	app := newPaymentApp(service, nil)

	body := bytes.NewBufferString(`{"amount":5000,"payment_method":"cash"}`)
	req := httptest.NewRequest("POST", "/bookings/7/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var result struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Error != "amount cannot exceed the remaining balance of 600.00" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
}

func TestRecordPaymentOnClosedBooking(t *testing.T) {
	service := &stubPaymentService{err: services.ErrInvalidStateTransition}
	app := newPaymentApp(service, nil)

	body := bytes.NewBufferString(`{"amount":400,"payment_method":"cash"}`)
	req := httptest.NewRequest("POST", "/bookings/7/payments", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDisputePaymentRequiresReason(t *testing.T) {
	service := &stubPaymentService{detail: bookingDetailFixture()}
	app := newPaymentApp(service, nil)

	body := bytes.NewBufferString(`{"reason":""}`)
	req := httptest.NewRequest("POST", "/payments/11/dispute", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastPaymentID != 0 {
		t.Fatal("service should not be called without a reason")
	}
}

func TestDisputePaymentForwardsReason(t *testing.T) {
	service := &stubPaymentService{detail: bookingDetailFixture()}
	app := newPaymentApp(service, nil)

	body := bytes.NewBufferString(`{"reason":"Reference number does not match"}`)
	req := httptest.NewRequest("POST", "/payments/11/dispute", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPaymentID != 11 {
		t.Fatalf("expected payment id 11, got %d", service.lastPaymentID)
	}
	if service.lastReason != "Reference number does not match" {
		t.Fatalf("unexpected reason: %q", service.lastReason)
	}
}

func TestUploadReceiptWithoutStorage(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentApp(service, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/payments/11/receipt", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	service := &stubPaymentService{
		transactions: []repository.CoachTransaction{
			{BookingReference: "MU-1A2B3C4D", AthleteName: "Juan Dela Cruz", Sport: "tennis"},
		},
		total: 12,
	}
	app := newPaymentApp(service, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/transactions?page=2&limit=5", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPage != 2 || service.lastLimit != 5 {
		t.Fatalf("expected page=2 limit=5, got page=%d limit=%d", service.lastPage, service.lastLimit)
	}

	var result struct {
		Transactions []repository.CoachTransaction `json:"transactions"`
		Pagination   models.PaginationMeta         `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Pagination.Total != 12 || result.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", result.Pagination)
	}
}

func TestListTransactionsClampsLimit(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentApp(service, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/transactions?limit=500", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastLimit != maxPageLimit {
		t.Fatalf("expected limit clamped to %d, got %d", maxPageLimit, service.lastLimit)
	}
}
