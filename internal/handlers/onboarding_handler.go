package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
)

type coachOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.CoachOnboardingInput) (*models.CoachProfile, error)
}

type OnboardingHandler struct {
	coachProfileRepo coachOnboardingProfileStore
}

func NewOnboardingHandler(coachProfileRepo coachOnboardingProfileStore) *OnboardingHandler {
	return &OnboardingHandler{coachProfileRepo: coachProfileRepo}
}

type coachOnboardingRequest struct {
	FullName           string                `json:"full_name"`
	BusinessName       *string               `json:"business_name"`
	Bio                string                `json:"bio"`
	SportsOffered      []string              `json:"sports_offered"`
	Locations          []string              `json:"locations"`
	HourlyRate         float64               `json:"hourly_rate"`
	ExperienceYears    int                   `json:"experience_years"`
	CoachingHours      *models.CoachingHours `json:"coaching_hours"`
	CancellationPolicy *string               `json:"cancellation_policy"`
}

// CoachOnboarding completes the profile in one shot. Once it succeeds the
// coach's public booking page goes live.
func (h *OnboardingHandler) CoachOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req coachOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateCoachOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.coachProfileRepo.UpdateOnboarding(c.Context(), userID, repository.CoachOnboardingInput{
		FullName:           req.FullName,
		BusinessName:       req.BusinessName,
		Bio:                req.Bio,
		SportsOffered:      req.SportsOffered,
		Locations:          req.Locations,
		HourlyRate:         req.HourlyRate,
		ExperienceYears:    req.ExperienceYears,
		CoachingHours:      req.CoachingHours,
		CancellationPolicy: req.CancellationPolicy,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}
