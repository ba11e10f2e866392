package handlers

import (
	"testing"

	"github.com/renren-chavez/MatchUpBack/internal/models"
)

func validOnboardingRequest() coachOnboardingRequest {
	return coachOnboardingRequest{
		FullName:        "Coach Ana",
		Bio:             "Ten years of competitive tennis coaching.",
		SportsOffered:   []string{"tennis"},
		Locations:       []string{"Makati"},
		HourlyRate:      800,
		ExperienceYears: 10,
	}
}

func TestValidateCoachOnboardingRequest(t *testing.T) {
	if msg := validateCoachOnboardingRequest(validOnboardingRequest()); msg != "" {
		t.Fatalf("expected valid request, got %q", msg)
	}

	cases := []struct {
		name   string
		mutate func(*coachOnboardingRequest)
	}{
		{"blank name", func(r *coachOnboardingRequest) { r.FullName = "  " }},
		{"blank bio", func(r *coachOnboardingRequest) { r.Bio = "" }},
		{"no sports", func(r *coachOnboardingRequest) { r.SportsOffered = nil }},
		{"empty sport entry", func(r *coachOnboardingRequest) { r.SportsOffered = []string{"tennis", " "} }},
		{"no locations", func(r *coachOnboardingRequest) { r.Locations = []string{} }},
		{"zero rate", func(r *coachOnboardingRequest) { r.HourlyRate = 0 }},
		{"negative experience", func(r *coachOnboardingRequest) { r.ExperienceYears = -1 }},
		{"bad coaching hours", func(r *coachOnboardingRequest) {
			r.CoachingHours = &models.CoachingHours{Start: "8am", End: "17:00"}
		}},
		{"inverted coaching hours", func(r *coachOnboardingRequest) {
			r.CoachingHours = &models.CoachingHours{Start: "17:00", End: "08:00"}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validOnboardingRequest()
			tc.mutate(&req)
			if msg := validateCoachOnboardingRequest(req); msg == "" {
				t.Fatalf("expected rejection for %s", tc.name)
			}
		})
	}
}

func TestValidateCoachProfileUpdateRequestAllowsPartial(t *testing.T) {
	if msg := validateCoachProfileUpdateRequest(updateCoachProfileRequest{}); msg != "" {
		t.Fatalf("empty update should be valid, got %q", msg)
	}

	rate := 1200.0
	if msg := validateCoachProfileUpdateRequest(updateCoachProfileRequest{HourlyRate: &rate}); msg != "" {
		t.Fatalf("rate-only update should be valid, got %q", msg)
	}

	blank := "   "
	if msg := validateCoachProfileUpdateRequest(updateCoachProfileRequest{FullName: &blank}); msg == "" {
		t.Fatal("blank name should be rejected")
	}

	zero := 0.0
	if msg := validateCoachProfileUpdateRequest(updateCoachProfileRequest{HourlyRate: &zero}); msg == "" {
		t.Fatal("zero rate should be rejected")
	}
}
