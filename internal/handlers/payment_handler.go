package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

type paymentApplicationService interface {
	RecordPayment(ctx context.Context, coachID, bookingID int64, input services.RecordPaymentInput) (*models.BookingDetail, error)
	ConfirmPayment(ctx context.Context, coachID, paymentID int64) (*models.BookingDetail, error)
	DisputePayment(ctx context.Context, coachID, paymentID int64, reason string) (*models.BookingDetail, error)
	AttachReceipt(ctx context.Context, coachID, paymentID int64, receiptURL string) (*models.Payment, error)
	ListTransactions(ctx context.Context, coachID int64, page, limit int) ([]repository.CoachTransaction, int, error)
}

type PaymentHandler struct {
	service       paymentApplicationService
	profiles      coachProfileResolver
	storage       services.Storage
	paymentWindow time.Duration
	now           func() time.Time
}

func NewPaymentHandler(
	service paymentApplicationService,
	profiles coachProfileResolver,
	storage services.Storage,
	paymentWindow time.Duration,
) *PaymentHandler {
	return &PaymentHandler{
		service:       service,
		profiles:      profiles,
		storage:       storage,
		paymentWindow: paymentWindow,
		now:           time.Now,
	}
}

type recordPaymentRequest struct {
	Amount          float64 `json:"amount"`
	PaymentMethod   string  `json:"payment_method"`
	ReferenceNumber *string `json:"reference_number"`
	IsDeposit       bool    `json:"is_deposit"`
}

func (h *PaymentHandler) RecordPayment(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req recordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	detail, err := h.service.RecordPayment(c.Context(), coachID, bookingID, services.RecordPaymentInput{
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		IsDeposit:       req.IsDeposit,
	})
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	paymentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || paymentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	detail, err := h.service.ConfirmPayment(c.Context(), coachID, paymentID)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

type disputePaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) DisputePayment(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	paymentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || paymentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var req disputePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if stripHTML(req.Reason) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason is required"})
	}

	detail, err := h.service.DisputePayment(c.Context(), coachID, paymentID, stripHTML(req.Reason))
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

// UploadReceipt stores the artifact and attaches its URL to the payment in
// one request. Storage must be configured, otherwise 503.
func (h *PaymentHandler) UploadReceipt(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	paymentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || paymentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"error": "Receipt storage is not configured"})
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "receipt file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "receipt file is empty"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to open receipt"})
	}
	defer file.Close()

	reference := c.FormValue("booking_reference")
	if reference == "" {
		reference = "unfiled"
	}

	receiptURL, err := h.storage.UploadReceipt(c.Context(), file, reference)
	if err != nil {
		return mapPaymentError(c, err)
	}

	payment, err := h.service.AttachReceipt(c.Context(), coachID, paymentID, receiptURL)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.JSON(fiber.Map{"payment": payment})
}

func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	transactions, total, err := h.service.ListTransactions(c.Context(), coachID, page, limit)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func (h *PaymentHandler) newBookingResponse(detail *models.BookingDetail) *bookingResponse {
	if detail == nil {
		return nil
	}
	return &bookingResponse{
		BookingDetail:    *detail,
		DisplayStatus:    detail.Booking.DisplayStatus(h.now(), h.paymentWindow),
		TotalPaid:        detail.TotalPaid(),
		RemainingBalance: detail.RemainingBalance(),
	}
}

func mapPaymentError(c *fiber.Ctx, err error) error {
	var paymentErr *services.PaymentError

	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "Payment or booking is not in a state that allows this action"})
	case errors.As(err, &paymentErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": paymentErr.Reason})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment or booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process payment request"})
	}
}
