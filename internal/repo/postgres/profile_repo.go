package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
	p.user_id,
	COALESCE(p.display_name, ''),
	COALESCE(p.gender, ''),
	p.birthdate,
	COALESCE(p.height_cm, 0),
	COALESCE(p.heritage, '{}'),
	COALESCE(p.religion, '{}'),
	COALESCE(p.languages, '{}'),
	COALESCE(p.education, ''),
	COALESCE(p.family_plan, ''),
	COALESCE(p.children_status, ''),
	COALESCE(p.drugs, ''),
	COALESCE(p.smoking, ''),
	COALESCE(p.marijuana, ''),
	COALESCE(p.drinking, ''),
	p.last_lat,
	p.last_lon,
	p.global_discovery,
	p.discoverable,
	p.is_active,
	COALESCE(p.max_distance_km, 0),
	p.last_active_at,
	pr.user_id IS NOT NULL,
	COALESCE(pr.genders, '{}'),
	COALESCE(pr.age_min, 0),
	COALESCE(pr.age_max, 0),
	COALESCE(pr.accepted_heritage, '{}'),
	COALESCE(pr.accepted_religion, '{}'),
	COALESCE(pr.accepted_languages, '{}'),
	COALESCE(pr.height_min_cm, 0),
	COALESCE(pr.height_max_cm, 0),
	COALESCE(pr.education, '{}'),
	COALESCE(pr.family_plans, '{}'),
	COALESCE(pr.children_status, '{}'),
	COALESCE(pr.drugs, '{}'),
	COALESCE(pr.smoking, '{}'),
	COALESCE(pr.marijuana, '{}'),
	COALESCE(pr.drinking, '{}'),
	COALESCE(s.kind, 'free'),
	s.expires_at`

const profileFrom = `
FROM profiles p
LEFT JOIN preferences pr ON pr.user_id = p.user_id
LEFT JOIN subscriptions s ON s.user_id = p.user_id`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, `SELECT`+profileColumns+profileFrom+`
WHERE p.user_id = $1
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// ListCandidates returns active discoverable profiles outside excluded, most recently
// active first.
func (r *ProfileRepo) ListCandidates(ctx context.Context, requesterID int64, excluded []int64, limit int) ([]model.Profile, error) {
	if requesterID <= 0 {
		return nil, fmt.Errorf("invalid requester id")
	}
	if limit <= 0 {
		limit = 500
	}
	if r.pool == nil {
		return []model.Profile{}, nil
	}
	if excluded == nil {
		excluded = []int64{}
	}

	rows, err := r.pool.Query(ctx, `SELECT`+profileColumns+profileFrom+`
WHERE
	p.is_active = TRUE
	AND p.discoverable = TRUE
	AND p.user_id <> $1
	AND NOT (p.user_id = ANY($2::bigint[]))
ORDER BY p.last_active_at DESC, p.user_id ASC
LIMIT $3
`, requesterID, excluded, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	items := make([]model.Profile, 0, limit)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, profile)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		p          model.Profile
		prefs      model.Preferences
		hasPrefs   bool
		tierKind   string
		expiresAt  *time.Time
		lastActive *time.Time
	)
	err := row.Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Gender,
		&p.BirthDate,
		&p.HeightCM,
		&p.Heritage,
		&p.Religion,
		&p.Languages,
		&p.Education,
		&p.FamilyPlan,
		&p.ChildrenStatus,
		&p.Drugs,
		&p.Smoking,
		&p.Marijuana,
		&p.Drinking,
		&p.Lat,
		&p.Lon,
		&p.GlobalDiscovery,
		&p.Discoverable,
		&p.Active,
		&p.MaxDistanceKM,
		&lastActive,
		&hasPrefs,
		&prefs.Genders,
		&prefs.AgeMin,
		&prefs.AgeMax,
		&prefs.AcceptedHeritage,
		&prefs.AcceptedReligion,
		&prefs.AcceptedLanguages,
		&prefs.HeightMinCM,
		&prefs.HeightMaxCM,
		&prefs.Education,
		&prefs.FamilyPlans,
		&prefs.ChildrenStatus,
		&prefs.Drugs,
		&prefs.Smoking,
		&prefs.Marijuana,
		&prefs.Drinking,
		&tierKind,
		&expiresAt,
	)
	if err != nil {
		return model.Profile{}, err
	}

	if hasPrefs {
		p.Preferences = &prefs
	}
	if lastActive != nil {
		p.LastActiveAt = lastActive.UTC()
	}
	p.Tier = model.Tier{Kind: enums.TierKindFree, ExpiresAt: expiresAt}
	if tierKind == string(enums.TierKindPremium) {
		p.Tier.Kind = enums.TierKindPremium
	}
	return p, nil
}
