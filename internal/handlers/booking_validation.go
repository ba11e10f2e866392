package handlers

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxAthleteNameLen = 100
	minAthleteNameLen = 2
	maxLocationLen    = 200
	maxNotesLen       = 500
	minDurationHours  = 0.5
	maxDurationHours  = 8.0
)

var (
	athleteNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'\-\.]+$`)
	philippinePhone    = regexp.MustCompile(`^\+63[0-9]{10}$`)
	timeOfDayPattern   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
)

// normalizePhone canonicalizes a Philippine mobile number to +63 form.
// Returns "" when the number cannot be a valid PH mobile.
func normalizePhone(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "+63" + cleaned[1:]
	case strings.HasPrefix(cleaned, "63"):
		cleaned = "+" + cleaned
	}

	if !philippinePhone.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// stripHTML removes markup from free-text fields before they are stored or
// echoed back.
func stripHTML(value string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(value, ""))
}

func validateAthleteName(name string) string {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < minAthleteNameLen || length > maxAthleteNameLen {
		return "athlete_name must be 2 to 100 characters"
	}
	if !athleteNamePattern.MatchString(trimmed) {
		return "athlete_name may only contain letters, spaces, apostrophes, hyphens, and periods"
	}
	return ""
}

func validateSessionDate(date string) string {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
		return "session_date must be YYYY-MM-DD"
	}
	return ""
}

func validateSessionTime(value string) string {
	if !timeOfDayPattern.MatchString(strings.TrimSpace(value)) {
		return "session_time must be HH:MM in 24-hour format"
	}
	return ""
}

func validateDurationHours(hours float64) string {
	if hours < minDurationHours || hours > maxDurationHours {
		return "duration_hours must be between 0.5 and 8"
	}
	if math.Mod(hours*2, 1) != 0 {
		return "duration_hours must be in half-hour steps"
	}
	return ""
}

func validatePaymentMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "gcash", "maya", "cash":
		return ""
	default:
		return "payment_method must be one of: gcash, maya, cash"
	}
}

func validateCreateBookingRequest(req createBookingRequest) string {
	if err := validateAthleteName(req.AthleteName); err != "" {
		return err
	}
	if normalizePhone(req.AthletePhone) == "" {
		return "athlete_phone must be a valid Philippine mobile number"
	}
	if strings.TrimSpace(req.Sport) == "" {
		return "sport is required"
	}
	location := stripHTML(req.Location)
	if location == "" {
		return "location is required"
	}
	if utf8.RuneCountInString(location) > maxLocationLen {
		return "location must be 200 characters or fewer"
	}
	if err := validateSessionDate(req.SessionDate); err != "" {
		return err
	}
	if err := validateSessionTime(req.SessionTime); err != "" {
		return err
	}
	if err := validateDurationHours(req.DurationHours); err != "" {
		return err
	}
	if err := validatePaymentMethod(req.PaymentMethod); err != "" {
		return err
	}
	if req.Notes != nil && utf8.RuneCountInString(stripHTML(*req.Notes)) > maxNotesLen {
		return "notes must be 500 characters or fewer"
	}
	return ""
}
