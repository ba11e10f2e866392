package models

import (
	"strings"
	"time"
)

// CoachingHours is a coach's optional fixed working window in local time of
// day. A nil CoachingHours on the profile means the coach is bookable any
// hour of any day.
type CoachingHours struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

type CoachProfile struct {
	ID                 int64          `json:"id"`
	UserID             int64          `json:"user_id"`
	FullName           *string        `json:"full_name"`
	BusinessName       *string        `json:"business_name"`
	AvatarURL          *string        `json:"avatar_url"`
	Bio                *string        `json:"bio"`
	SportsOffered      []string       `json:"sports_offered"`
	Locations          []string       `json:"locations"`
	HourlyRate         *float64       `json:"hourly_rate"`
	ExperienceYears    *int           `json:"experience_years"`
	CoachingHours      *CoachingHours `json:"coaching_hours"`
	CancellationPolicy *string        `json:"cancellation_policy"`
	OnboardingComplete bool           `json:"onboarding_complete"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ProfileComplete reports whether the profile can take public bookings:
// a positive rate plus at least one sport and one service location.
func (p *CoachProfile) ProfileComplete() bool {
	if p.HourlyRate == nil || *p.HourlyRate <= 0 {
		return false
	}
	return len(p.SportsOffered) > 0 && len(p.Locations) > 0
}

// OffersSport matches case-insensitively against the coach's offered sports.
func (p *CoachProfile) OffersSport(sport string) bool {
	for _, s := range p.SportsOffered {
		if strings.EqualFold(s, sport) {
			return true
		}
	}
	return false
}
