package repository

import (
	"context"

	"github.com/renren-chavez/MatchUpBack/internal/models"
)

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

const coachProfileColumns = `id, user_id, full_name, business_name, avatar_url, bio,
	   sports_offered, locations, hourly_rate, experience_years, coaching_hours,
	   cancellation_policy, onboarding_complete, created_at, updated_at`

func (r *CoachProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO coach_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `
		SELECT ` + coachProfileColumns + `
		FROM coach_profiles
		WHERE user_id = $1
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *CoachProfileRepository) GetByID(ctx context.Context, id int64) (*models.CoachProfile, error) {
	query := `
		SELECT ` + coachProfileColumns + `
		FROM coach_profiles
		WHERE id = $1
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

type CoachOnboardingInput struct {
	FullName           string
	BusinessName       *string
	Bio                string
	SportsOffered      []string
	Locations          []string
	HourlyRate         float64
	ExperienceYears    int
	CoachingHours      *models.CoachingHours
	CancellationPolicy *string
}

func (r *CoachProfileRepository) UpdateOnboarding(ctx context.Context, userID int64, req CoachOnboardingInput) (*models.CoachProfile, error) {
	query := `
		UPDATE coach_profiles
		SET full_name = $1,
			business_name = $2,
			bio = $3,
			sports_offered = $4,
			locations = $5,
			hourly_rate = $6,
			experience_years = $7,
			coaching_hours = $8,
			cancellation_policy = $9,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $10
		RETURNING ` + coachProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.BusinessName,
		req.Bio,
		req.SportsOffered,
		req.Locations,
		req.HourlyRate,
		req.ExperienceYears,
		req.CoachingHours,
		req.CancellationPolicy,
		userID,
	))
}

type UpdateCoachProfileInput struct {
	FullName           *string
	BusinessName       *string
	AvatarURL          *string
	Bio                *string
	SportsOffered      *[]string
	Locations          *[]string
	HourlyRate         *float64
	ExperienceYears    *int
	CoachingHours      *models.CoachingHours
	ClearCoachingHours bool
	CancellationPolicy *string
}

func (r *CoachProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdateCoachProfileInput) (*models.CoachProfile, error) {
	query := `
		UPDATE coach_profiles
		SET full_name = COALESCE($1, full_name),
			business_name = COALESCE($2, business_name),
			avatar_url = COALESCE($3, avatar_url),
			bio = COALESCE($4, bio),
			sports_offered = COALESCE($5, sports_offered),
			locations = COALESCE($6, locations),
			hourly_rate = COALESCE($7, hourly_rate),
			experience_years = COALESCE($8, experience_years),
			coaching_hours = CASE WHEN $10 THEN NULL ELSE COALESCE($9, coaching_hours) END,
			cancellation_policy = COALESCE($11, cancellation_policy),
			updated_at = NOW()
		WHERE user_id = $12
		RETURNING ` + coachProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.BusinessName,
		req.AvatarURL,
		req.Bio,
		req.SportsOffered,
		req.Locations,
		req.HourlyRate,
		req.ExperienceYears,
		req.CoachingHours,
		req.ClearCoachingHours,
		req.CancellationPolicy,
		userID,
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CoachProfileRepository) scanProfile(row rowScanner) (*models.CoachProfile, error) {
	var profile models.CoachProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.BusinessName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.SportsOffered,
		&profile.Locations,
		&profile.HourlyRate,
		&profile.ExperienceYears,
		&profile.CoachingHours,
		&profile.CancellationPolicy,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
