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

type bookingApplicationService interface {
	ListBookings(ctx context.Context, coachID int64, filter repository.BookingListFilter) ([]models.BookingDetail, error)
	GetBooking(ctx context.Context, coachID int64, bookingID int64) (*models.BookingDetail, error)
	Approve(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error)
	Reject(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error)
	Cancel(ctx context.Context, coachID, bookingID int64, reason string) (*models.BookingDetail, error)
}

type coachProfileResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
}

// bookingResponse is a booking detail with the ledger totals and the derived
// dashboard status attached.
type bookingResponse struct {
	models.BookingDetail
	DisplayStatus    string  `json:"display_status"`
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
}

type BookingHandler struct {
	service       bookingApplicationService
	profiles      coachProfileResolver
	paymentWindow time.Duration
	now           func() time.Time
}

func NewBookingHandler(
	service bookingApplicationService,
	profiles coachProfileResolver,
	paymentWindow time.Duration,
) *BookingHandler {
	return &BookingHandler{
		service:       service,
		profiles:      profiles,
		paymentWindow: paymentWindow,
		now:           time.Now,
	}
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}

	filter := repository.BookingListFilter{
		Status:    c.Query("status"),
		Timeframe: c.Query("timeframe"),
	}
	details, err := h.service.ListBookings(c.Context(), coachID, filter)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": h.newBookingResponses(details)})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	detail, err := h.service.GetBooking(c.Context(), coachID, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

func (h *BookingHandler) ApproveBooking(c *fiber.Ctx) error {
	return h.transition(c, h.service.Approve)
}

func (h *BookingHandler) RejectBooking(c *fiber.Ctx) error {
	return h.transition(c, h.service.Reject)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req cancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if stripHTML(req.Reason) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason is required"})
	}

	detail, err := h.service.Cancel(c.Context(), coachID, bookingID, stripHTML(req.Reason))
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

func (h *BookingHandler) transition(
	c *fiber.Ctx,
	op func(ctx context.Context, coachID, bookingID int64) (*models.BookingDetail, error),
) error {
	coachID, err := resolveCoachID(c, h.profiles)
	if err != nil {
		return mapCoachResolveError(c, err)
	}
	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	detail, err := op(c.Context(), coachID, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": h.newBookingResponse(detail)})
}

func (h *BookingHandler) newBookingResponse(detail *models.BookingDetail) *bookingResponse {
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

func (h *BookingHandler) newBookingResponses(details []models.BookingDetail) []bookingResponse {
	responses := make([]bookingResponse, 0, len(details))
	for i := range details {
		responses = append(responses, *h.newBookingResponse(&details[i]))
	}
	return responses
}

var (
	errNotCoach     = errors.New("caller is not a coach")
	errInvalidToken = errors.New("invalid token claims")
)

// resolveCoachID maps the authenticated user to their coach profile id, which
// is what bookings and blockings key on.
func resolveCoachID(c *fiber.Ctx, profiles coachProfileResolver) (int64, error) {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return 0, errNotCoach
	}
	userID, err := parseProfileUserID(c)
	if err != nil {
		return 0, errInvalidToken
	}

	profile, err := profiles.GetByUserID(c.Context(), userID)
	if err != nil {
		return 0, err
	}
	return profile.ID, nil
}

func mapCoachResolveError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errNotCoach):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, errInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch coach profile"})
	}
}

func mapBookingError(c *fiber.Ctx, err error) error {
	var policyErr *services.PolicyViolationError
	var conflictErr *services.ConflictError

	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "Booking is not in a state that allows this action"})
	case errors.Is(err, services.ErrCoachNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	case errors.Is(err, services.ErrCoachNotBookable):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "This coach is not accepting bookings yet"})
	case errors.Is(err, services.ErrSportNotOffered):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "This coach does not offer the requested sport"})
	case errors.Is(err, services.ErrSessionInPast):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "Session start time is in the past"})
	case errors.As(err, &policyErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   policyErr.Error(),
			"blocked": policyErr.Violation.Window.String(),
		})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":             conflictErr.Error(),
			"conflicting_time":  conflictErr.SessionTime,
			"booking_reference": conflictErr.BookingReference,
		})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
