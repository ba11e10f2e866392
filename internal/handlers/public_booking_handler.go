package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/schedule"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

type publicBookingService interface {
	CreateBooking(ctx context.Context, coachID int64, input services.CreateBookingInput) (*models.BookingDetail, error)
	CheckAvailability(ctx context.Context, coachID int64, sessionDate, sessionTime string, durationHours float64) (bool, []schedule.Window, error)
}

type coachProfileGetter interface {
	GetByID(ctx context.Context, profileID int64) (*models.CoachProfile, error)
}

// PublicBookingHandler serves the unauthenticated athlete-facing surface:
// the coach's public card, same-day availability, booking intake, and
// reference lookup.
type PublicBookingHandler struct {
	service  publicBookingService
	profiles coachProfileGetter
	lookup   bookingLookup
}

type bookingLookup interface {
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
}

func NewPublicBookingHandler(
	service publicBookingService,
	profiles coachProfileGetter,
	lookup bookingLookup,
) *PublicBookingHandler {
	return &PublicBookingHandler{service: service, profiles: profiles, lookup: lookup}
}

// GetCoachCard exposes only what an athlete needs to book: identity, offer,
// and policy. Rates and windows come along; nothing account-level does.
func (h *PublicBookingHandler) GetCoachCard(c *fiber.Ctx) error {
	coachID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || coachID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	profile, err := h.profiles.GetByID(c.Context(), coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch coach"})
	}
	if !profile.OnboardingComplete || !profile.ProfileComplete() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	}

	return c.JSON(fiber.Map{
		"coach": fiber.Map{
			"id":                  profile.ID,
			"full_name":           profile.FullName,
			"business_name":       profile.BusinessName,
			"avatar_url":          profile.AvatarURL,
			"bio":                 profile.Bio,
			"sports_offered":      profile.SportsOffered,
			"locations":           profile.Locations,
			"hourly_rate":         profile.HourlyRate,
			"coaching_hours":      profile.CoachingHours,
			"cancellation_policy": profile.CancellationPolicy,
		},
	})
}

// CheckAvailability answers "is this slot free" and always returns the free
// same-day windows, so the booking form can offer alternatives on a miss.
func (h *PublicBookingHandler) CheckAvailability(c *fiber.Ctx) error {
	coachID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || coachID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	date := c.Query("date")
	if msg := validateSessionDate(date); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	sessionTime := c.Query("time")
	if sessionTime != "" {
		if msg := validateSessionTime(sessionTime); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
	}

	durationHours := 1.0
	if raw := c.Query("duration_hours"); raw != "" {
		durationHours, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "duration_hours must be a number"})
		}
		if msg := validateDurationHours(durationHours); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
	}

	available, free, err := h.service.CheckAvailability(c.Context(), coachID, date, sessionTime, durationHours)
	if err != nil {
		return mapBookingError(c, err)
	}

	slots := make([]fiber.Map, 0, len(free))
	for _, window := range free {
		slots = append(slots, fiber.Map{
			"start": window.Start.String(),
			"end":   window.End.String(),
		})
	}

	return c.JSON(fiber.Map{
		"available":  available,
		"free_slots": slots,
	})
}

type createBookingRequest struct {
	AthleteName   string  `json:"athlete_name"`
	AthletePhone  string  `json:"athlete_phone"`
	Sport         string  `json:"sport"`
	Location      string  `json:"location"`
	SessionDate   string  `json:"session_date"`
	SessionTime   string  `json:"session_time"`
	DurationHours float64 `json:"duration_hours"`
	PaymentMethod string  `json:"payment_method"`
	Notes         *string `json:"notes"`
}

func (h *PublicBookingHandler) CreateBooking(c *fiber.Ctx) error {
	coachID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || coachID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := validateCreateBookingRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	var notes *string
	if req.Notes != nil {
		if cleaned := stripHTML(*req.Notes); cleaned != "" {
			notes = &cleaned
		}
	}

	detail, err := h.service.CreateBooking(c.Context(), coachID, services.CreateBookingInput{
		AthleteName:   stripHTML(req.AthleteName),
		AthletePhone:  normalizePhone(req.AthletePhone),
		Sport:         stripHTML(req.Sport),
		Location:      stripHTML(req.Location),
		SessionDate:   req.SessionDate,
		SessionTime:   req.SessionTime,
		DurationHours: req.DurationHours,
		PaymentMethod: req.PaymentMethod,
		Notes:         notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking_reference": detail.BookingReference,
		"status":            detail.Status,
		"session_date":      detail.SessionDate,
		"session_time":      detail.SessionTime,
		"duration_hours":    detail.DurationHours,
		"total_amount":      detail.TotalAmount,
	})
}

// LookupBooking lets an athlete check their request by reference without an
// account. The response is intentionally thin.
func (h *PublicBookingHandler) LookupBooking(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Booking reference is required"})
	}

	booking, err := h.lookup.GetByReference(c.Context(), reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch booking"})
	}

	return c.JSON(fiber.Map{
		"booking_reference": booking.BookingReference,
		"status":            booking.Status,
		"session_date":      booking.SessionDate,
		"session_time":      booking.SessionTime,
		"duration_hours":    booking.DurationHours,
		"total_amount":      booking.TotalAmount,
		"created_at":        booking.CreatedAt.Format(time.RFC3339),
	})
}
