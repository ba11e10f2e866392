package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/services"
)

const maxAvatarSizeBytes = 5 * 1024 * 1024

type coachProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateCoachProfileInput) (*models.CoachProfile, error)
}

type ProfileHandler struct {
	coachProfileRepo coachProfileStore
	storage          services.Storage
}

func NewProfileHandler(coachProfileRepo coachProfileStore, storage services.Storage) *ProfileHandler {
	return &ProfileHandler{coachProfileRepo: coachProfileRepo, storage: storage}
}

type updateCoachProfileRequest struct {
	FullName           *string               `json:"full_name"`
	BusinessName       *string               `json:"business_name"`
	Bio                *string               `json:"bio"`
	SportsOffered      *[]string             `json:"sports_offered"`
	Locations          *[]string             `json:"locations"`
	HourlyRate         *float64              `json:"hourly_rate"`
	ExperienceYears    *int                  `json:"experience_years"`
	CoachingHours      *models.CoachingHours `json:"coaching_hours"`
	ClearCoachingHours bool                  `json:"clear_coaching_hours"`
	CancellationPolicy *string               `json:"cancellation_policy"`
}

func (h *ProfileHandler) GetCoachProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.coachProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
		"accepting_bookings":  profile.OnboardingComplete && profile.ProfileComplete(),
	})
}

func (h *ProfileHandler) UpdateCoachProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateCoachProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateCoachProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.coachProfileRepo.UpdatePartial(c.Context(), userID, repository.UpdateCoachProfileInput{
		FullName:           req.FullName,
		BusinessName:       req.BusinessName,
		Bio:                req.Bio,
		SportsOffered:      req.SportsOffered,
		Locations:          req.Locations,
		HourlyRate:         req.HourlyRate,
		ExperienceYears:    req.ExperienceYears,
		CoachingHours:      req.CoachingHours,
		ClearCoachingHours: req.ClearCoachingHours,
		CancellationPolicy: req.CancellationPolicy,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
		"accepting_bookings":  profile.OnboardingComplete && profile.ProfileComplete(),
	})
}

func (h *ProfileHandler) UploadCoachAvatar(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	avatarURL, err := h.storage.UploadAvatar(c.Context(), file, userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	current, err := h.coachProfileRepo.GetByUserID(c.Context(), userID)
	if err == nil && current.AvatarURL != nil && *current.AvatarURL != "" && *current.AvatarURL != avatarURL {
		_ = h.storage.Delete(c.Context(), *current.AvatarURL)
	}

	profile, err := h.coachProfileRepo.UpdatePartial(c.Context(), userID, repository.UpdateCoachProfileInput{
		AvatarURL: &avatarURL,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"avatar_url": avatarURL,
		"profile":    profile,
	})
}

func parseProfileUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
