package handlers

import (
	"strings"

	"github.com/renren-chavez/MatchUpBack/internal/models"
	"github.com/renren-chavez/MatchUpBack/internal/schedule"
)

func validateCoachOnboardingRequest(req coachOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if msg := validateStringList(req.SportsOffered, "sports_offered"); msg != "" {
		return msg
	}
	if msg := validateStringList(req.Locations, "locations"); msg != "" {
		return msg
	}
	if req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	if req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if msg := validateCoachingHours(req.CoachingHours); msg != "" {
		return msg
	}
	return ""
}

func validateCoachProfileUpdateRequest(req updateCoachProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.SportsOffered != nil {
		if msg := validateStringList(*req.SportsOffered, "sports_offered"); msg != "" {
			return msg
		}
	}
	if req.Locations != nil {
		if msg := validateStringList(*req.Locations, "locations"); msg != "" {
			return msg
		}
	}
	if req.HourlyRate != nil && *req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if msg := validateCoachingHours(req.CoachingHours); msg != "" {
		return msg
	}
	return ""
}

func validateStringList(values []string, field string) string {
	if len(values) == 0 {
		return field + " must contain at least one item"
	}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return field + " must not contain empty values"
		}
	}
	return ""
}

func validateCoachingHours(hours *models.CoachingHours) string {
	if hours == nil {
		return ""
	}
	start, err := schedule.ParseTimeOfDay(hours.Start)
	if err != nil {
		return "coaching_hours.start must be HH:MM"
	}
	end, err := schedule.ParseTimeOfDay(hours.End)
	if err != nil {
		return "coaching_hours.end must be HH:MM"
	}
	if _, err := schedule.NewWindow(start, end); err != nil {
		return "coaching_hours.start must be before coaching_hours.end"
	}
	return ""
}
